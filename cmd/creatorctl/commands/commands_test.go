package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"BaseCreator/internal/config"
	xerrors "BaseCreator/internal/errors"
	"BaseCreator/internal/events"
	"BaseCreator/internal/session"
	"BaseCreator/internal/web3/ethereum"

	gethcore "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	coretypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "basecreator.json")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func run(t *testing.T, a *app, args ...string) (sessionView, error) {
	t.Helper()
	var out bytes.Buffer
	a.out = &out
	cmd := newRootCmd(a)
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	err := cmd.ExecuteContext(context.Background())
	a.close()

	var view sessionView
	if err == nil {
		if uerr := json.Unmarshal(out.Bytes(), &view); uerr != nil {
			t.Fatalf("decode output %q: %v", out.String(), uerr)
		}
	}
	return view, err
}

func TestSessionShowPrintsGuest(t *testing.T) {
	t.Setenv("BASECREATOR_PRIVATE_KEY", "")
	path := writeConfig(t, `{"storage":{"driver":"memory"},"events":{"driver":"memory"}}`)

	view, err := run(t, &app{configPath: path}, "session", "show")
	if err != nil {
		t.Fatalf("session show: %v", err)
	}
	if !view.IsGuest || view.Connected || view.DisplayName != session.GuestDisplayName {
		t.Fatalf("unexpected view %+v", view)
	}
}

func TestSessionConnectWithoutWalletFails(t *testing.T) {
	t.Setenv("BASECREATOR_PRIVATE_KEY", "")
	path := writeConfig(t, `{"storage":{"driver":"memory"}}`)

	_, err := run(t, &app{configPath: path}, "session", "connect")
	if xerrors.CodeOf(err) != xerrors.CodeConnectionFailure {
		t.Fatalf("expected CONNECTION_FAILURE, got %v", err)
	}
}

func TestSessionPersistsAcrossRuns(t *testing.T) {
	t.Setenv("BASECREATOR_PRIVATE_KEY", "")
	path := writeConfig(t, `{"storage":{"driver":"leveldb","path":"state/session"}}`)
	address := "0xAAAABBBBCCCCDDDDEEEEFFFF00001234abcd"

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	store, err := openStore(context.Background(), cfg)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	record := `{"address":"` + address + `","isGuest":false}`
	if err := store.Set(context.Background(), cfg.Storage.Key, record); err != nil {
		t.Fatalf("seed store: %v", err)
	}
	store.(interface{ Close() error }).Close()

	view, err := run(t, &app{configPath: path}, "session", "show")
	if err != nil {
		t.Fatalf("session show: %v", err)
	}
	if !view.Connected || view.DisplayName != "Playerabcd" {
		t.Fatalf("expected restored session, got %+v", view)
	}

	view, err = run(t, &app{configPath: path}, "session", "disconnect")
	if err != nil || view.Connected {
		t.Fatalf("disconnect: %+v err=%v", view, err)
	}
	view, err = run(t, &app{configPath: path}, "session", "show")
	if err != nil || view.Connected {
		t.Fatalf("expected guest after disconnect, got %+v err=%v", view, err)
	}
}

func TestOpenPublisherDrivers(t *testing.T) {
	ctx := context.Background()
	cfg := config.Default(t.TempDir())

	pub, err := openPublisher(ctx, cfg)
	if err != nil {
		t.Fatalf("none publisher: %v", err)
	}
	if _, ok := pub.(events.Nop); !ok {
		t.Fatalf("expected Nop publisher, got %T", pub)
	}

	cfg.Events.Driver = "memory"
	pub, err = openPublisher(ctx, cfg)
	if err != nil {
		t.Fatalf("memory publisher: %v", err)
	}
	if _, ok := pub.(*events.MemoryPublisher); !ok {
		t.Fatalf("expected memory publisher, got %T", pub)
	}

	cfg.Events.Driver = "redis"
	if _, err := openPublisher(ctx, cfg); err == nil {
		t.Fatal("expected redis publisher without address to fail")
	}
}

func TestSenderRequiresWallet(t *testing.T) {
	a := &app{cfg: config.Default(".")}
	if _, err := a.sender("0x1234"); err == nil {
		t.Fatal("expected missing wallet to fail")
	}
}

// chainIDBackend answers only the chain ID lookup done when a local wallet
// is built.
type chainIDBackend struct{}

func (chainIDBackend) ChainID(context.Context) (*big.Int, error) { return big.NewInt(8453), nil }
func (chainIDBackend) PendingNonceAt(context.Context, common.Address) (uint64, error) {
	return 0, errors.New("not used")
}
func (chainIDBackend) SuggestGasTipCap(context.Context) (*big.Int, error) {
	return nil, errors.New("not used")
}
func (chainIDBackend) HeaderByNumber(context.Context, *big.Int) (*coretypes.Header, error) {
	return nil, errors.New("not used")
}
func (chainIDBackend) EstimateGas(context.Context, gethcore.CallMsg) (uint64, error) {
	return 0, errors.New("not used")
}
func (chainIDBackend) SendTransaction(context.Context, *coretypes.Transaction) error {
	return errors.New("not used")
}

func TestSenderLocalKeyMustMatchSession(t *testing.T) {
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	local, err := ethereum.NewLocalWallet(context.Background(), chainIDBackend{}, key)
	if err != nil {
		t.Fatalf("local wallet: %v", err)
	}
	a := &app{cfg: config.Default("."), local: local}

	sender, err := a.sender(local.Address().Hex())
	if err != nil || sender != local {
		t.Fatalf("expected local wallet for its own account, got %v err=%v", sender, err)
	}

	_, err = a.sender("0xAAAABBBBCCCCDDDDEEEEFFFF00001234abcd")
	if xerrors.CodeOf(err) != xerrors.CodeInvalidArgument {
		t.Fatalf("expected mismatched session account to be rejected, got %v", err)
	}
}
