package session

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"

	xerrors "BaseCreator/internal/errors"
	"BaseCreator/internal/events"
	"BaseCreator/internal/web3"
	"BaseCreator/pkg/logger"
)

// ErrNotInitialized is returned when the session is used before Initialize.
var ErrNotInitialized = xerrors.New(xerrors.CodeNotInitialized, "会话尚未初始化，请先调用 Initialize")

var errNoHostAccount = errors.New("宿主钱包未授权任何账户")

// Config carries the options recognised by Initialize.
type Config struct {
	AppName string
	AppURL  string
	ChainID uint64
}

// Provider is a wallet provider following the request/response convention:
// a method name plus params yields a result. go-ethereum's *rpc.Client
// satisfies it.
type Provider interface {
	CallContext(ctx context.Context, result interface{}, method string, args ...interface{}) error
}

// Profile is the optional identity an embedding host may expose.
type Profile struct {
	Username string
	Avatar   string
}

// ProfileReader is implemented by host providers that expose a user profile.
type ProfileReader interface {
	Profile(ctx context.Context) (Profile, error)
}

// Option configures the Manager created by a Root.
type Option func(*Manager)

// WithHost marks the process as running inside an embedding host wallet
// context; Initialize silently reads already authorised accounts from it.
func WithHost(host Provider) Option {
	return func(m *Manager) {
		m.host = host
	}
}

// WithWalletProvider sets the injected provider used by ConnectWallet.
func WithWalletProvider(p Provider) Option {
	return func(m *Manager) {
		m.wallet = p
	}
}

// WithStorageKey overrides the key the record is stored under.
func WithStorageKey(key string) Option {
	return func(m *Manager) {
		if strings.TrimSpace(key) != "" {
			m.key = key
		}
	}
}

// WithPublisher sets where session change events are sent.
func WithPublisher(p events.Publisher) Option {
	return func(m *Manager) {
		if p != nil {
			m.publisher = p
		}
	}
}

// WithLogger overrides the component logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// Root owns the single Manager of a client. It replaces hidden package
// state: the composition root holds one Root and hands the Manager out.
type Root struct {
	mu      sync.Mutex
	store   Store
	opts    []Option
	manager *Manager
}

// NewRoot prepares a Root. A nil store falls back to an in-memory store.
func NewRoot(store Store, opts ...Option) *Root {
	if store == nil {
		store = NewMemoryStore()
	}
	return &Root{store: store, opts: opts}
}

// Initialize creates the Manager on first use: it loads the persisted record
// and, inside a host context, resolves an already authorised account without
// prompting. Later calls return the existing Manager unchanged.
func (r *Root) Initialize(ctx context.Context, cfg Config) (*Manager, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.manager != nil {
		return r.manager, nil
	}
	if cfg.ChainID == 0 {
		return nil, xerrors.New(xerrors.CodeInvalidArgument, "未配置目标链 ID")
	}

	m := &Manager{
		cfg:       cfg,
		store:     r.store,
		key:       DefaultStorageKey,
		user:      guestUser(),
		publisher: events.Nop{},
	}
	for _, opt := range r.opts {
		if opt != nil {
			opt(m)
		}
	}
	if m.logger == nil {
		m.logger = logger.Named("session")
	}

	m.load(ctx)
	if m.host != nil {
		m.adoptHostAccount(ctx)
	}

	m.logger.Info("session initialized",
		slog.String("app", cfg.AppName),
		slog.Uint64("chain_id", cfg.ChainID),
		slog.Bool("guest", m.GetUser().IsGuest),
	)
	r.manager = m
	return m, nil
}

// Manager returns the live Manager or ErrNotInitialized.
func (r *Root) Manager() (*Manager, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.manager == nil {
		return nil, ErrNotInitialized
	}
	return r.manager, nil
}

// Manager mediates all reads and writes of the wallet identity.
type Manager struct {
	mu        sync.RWMutex
	user      User
	cfg       Config
	store     Store
	key       string
	host      Provider
	wallet    Provider
	publisher events.Publisher
	logger    *slog.Logger
}

// Config returns the options the session was initialised with.
func (m *Manager) Config() Config {
	return m.cfg
}

// GetUser returns a snapshot of the session with derived fields filled in.
func (m *Manager) GetUser() User {
	m.mu.RLock()
	u := m.user
	m.mu.RUnlock()
	u.DisplayName = displayNameOf(u)
	u.AvatarURL = avatarOf(u)
	return u
}

// IsConnected reports whether a real account is bound.
func (m *Manager) IsConnected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return !m.user.IsGuest && m.user.Address != ""
}

// GetDisplayName never returns the raw address.
func (m *Manager) GetDisplayName() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return displayNameOf(m.user)
}

// GetAvatar returns the avatar URL for the session.
func (m *Manager) GetAvatar() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return avatarOf(m.user)
}

// ConnectWallet asks the injected provider for account access, which may
// prompt the user. Failures are returned to the caller.
func (m *Manager) ConnectWallet(ctx context.Context) (User, error) {
	if m.wallet == nil {
		return m.GetUser(), xerrors.New(xerrors.CodeConnectionFailure, "未检测到可用的钱包提供者")
	}

	var accounts []string
	if err := m.wallet.CallContext(ctx, &accounts, "eth_requestAccounts"); err != nil {
		if web3.IsUserRejection(err) {
			return m.GetUser(), xerrors.Wrap(xerrors.CodeUserRejected, err, "用户拒绝了钱包连接请求")
		}
		return m.GetUser(), xerrors.Wrap(xerrors.CodeConnectionFailure, err, "请求钱包账户失败")
	}
	address, err := firstAccount(accounts)
	if err != nil {
		return m.GetUser(), xerrors.Wrap(xerrors.CodeConnectionFailure, err, "钱包未返回可用账户")
	}

	record := boundUser(address, "", "")
	m.replace(ctx, record)
	m.announce(ctx, events.KindSessionConnected, record)
	return m.GetUser(), nil
}

// Disconnect resets the session to the guest default and persists the reset.
func (m *Manager) Disconnect(ctx context.Context) User {
	m.replace(ctx, guestUser())
	m.announce(ctx, events.KindSessionDisconnected, guestUser())
	return m.GetUser()
}

// hostIdentity is what a host context resolved to.
type hostIdentity struct {
	address string
	profile Profile
}

// resolveHost silently reads the account a host has already authorised.
// errNoHostAccount means the host is present but nothing is authorised.
func (m *Manager) resolveHost(ctx context.Context) (hostIdentity, error) {
	var accounts []string
	if err := m.host.CallContext(ctx, &accounts, "eth_accounts"); err != nil {
		return hostIdentity{}, err
	}
	if len(accounts) == 0 {
		return hostIdentity{}, errNoHostAccount
	}
	address, err := firstAccount(accounts)
	if err != nil {
		return hostIdentity{}, err
	}

	id := hostIdentity{address: address}
	if reader, ok := m.host.(ProfileReader); ok {
		profile, err := reader.Profile(ctx)
		if err != nil {
			m.logger.Warn("读取宿主用户资料失败，使用派生身份", slog.Any("error", err))
		} else {
			id.profile = profile
		}
	}
	return id, nil
}

// adoptHostAccount binds the host account when one resolves. Any failure
// leaves the current record untouched.
func (m *Manager) adoptHostAccount(ctx context.Context) {
	id, err := m.resolveHost(ctx)
	switch {
	case errors.Is(err, errNoHostAccount):
		m.logger.Debug("host context present without authorised account")
		return
	case err != nil:
		m.logger.Warn("从宿主钱包获取账户失败，保持当前会话", slog.Any("error", err))
		return
	}
	record := boundUser(id.address, id.profile.Username, id.profile.Avatar)
	m.replace(ctx, record)
	m.announce(ctx, events.KindSessionRestored, record)
}

func (m *Manager) replace(ctx context.Context, record User) {
	m.mu.Lock()
	m.user = record
	m.mu.Unlock()
	m.persist(ctx, record)
}

// persist overwrites the whole stored record. Storage errors are logged.
func (m *Manager) persist(ctx context.Context, record User) {
	payload, err := json.Marshal(record)
	if err != nil {
		m.logger.Error("序列化会话失败", slog.Any("error", err))
		return
	}
	if err := m.store.Set(ctx, m.key, string(payload)); err != nil {
		m.logger.Warn("保存会话失败",
			slog.Any("error", xerrors.Wrap(xerrors.CodeStorageFailure, err, "写入会话存储失败",
				xerrors.WithMetadata("key", m.key))))
	}
}

// load merges the stored record over the guest default. Missing, unreadable
// or corrupt data leaves the guest default in place.
func (m *Manager) load(ctx context.Context) {
	raw, ok, err := m.store.Get(ctx, m.key)
	if err != nil {
		m.logger.Warn("读取会话存储失败，使用访客身份",
			slog.Any("error", xerrors.Wrap(xerrors.CodeStorageFailure, err, "读取会话存储失败",
				xerrors.WithMetadata("key", m.key))))
		return
	}
	if !ok || strings.TrimSpace(raw) == "" {
		return
	}

	merged := guestUser()
	if err := json.Unmarshal([]byte(raw), &merged); err != nil {
		m.logger.Warn("会话存储内容损坏，已忽略", slog.String("key", m.key), slog.Any("error", err))
		return
	}
	switch {
	case merged.IsGuest:
		// 访客记录不保留任何账户信息。
		merged = guestUser()
	case !IsAccount(merged.Address):
		m.logger.Warn("存储的会话缺少有效账户，恢复为访客", slog.String("key", m.key))
		merged = guestUser()
	}

	m.mu.Lock()
	m.user = merged
	m.mu.Unlock()
}

func (m *Manager) announce(ctx context.Context, kind events.Kind, record User) {
	name := displayNameOf(record)
	logger.Audit().Info(string(kind),
		slog.String("display_name", name),
		slog.Bool("guest", record.IsGuest),
		slog.Uint64("chain_id", m.cfg.ChainID),
	)
	event := events.New(kind)
	event.ChainID = m.cfg.ChainID
	event.DisplayName = name
	if err := m.publisher.Publish(context.WithoutCancel(ctx), event); err != nil {
		m.logger.Warn("发布会话事件失败", slog.String("kind", string(kind)), slog.Any("error", err))
	}
}

func firstAccount(accounts []string) (string, error) {
	if len(accounts) == 0 {
		return "", errors.New("账户列表为空")
	}
	address := strings.TrimSpace(accounts[0])
	if !IsAccount(address) {
		return "", errors.New("账户格式无效")
	}
	return address, nil
}
