package commands

import (
	"context"
	"errors"
	"log/slog"
	"math/big"

	"github.com/spf13/cobra"

	"BaseCreator/internal/batch"
	"BaseCreator/internal/web3"
	"BaseCreator/internal/web3/contract"
)

type feeView struct {
	Wei    string `json:"wei"`
	Source string `json:"source"`
}

type executionView struct {
	RunID     string `json:"runId"`
	Reference string `json:"reference"`
	Mode      string `json:"mode"`
	Calls     int    `json:"calls"`
	Submitted int    `json:"submitted"`
	Warning   string `json:"warning,omitempty"`
}

func tokenCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Create tokens through the factory contract",
	}
	cmd.AddCommand(tokenFeeCmd(a), tokenCreateCmd(a))
	return cmd
}

func tokenFeeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "fee",
		Short: "Print the factory creation fee",
		RunE: func(cmd *cobra.Command, args []string) error {
			fee, source, err := a.creationFee(cmd.Context())
			if err != nil {
				return err
			}
			return a.print(feeView{Wei: fee.String(), Source: source})
		},
	}
}

// creationFee reads the on-chain fee and falls back to the configured one
// when the chain cannot be read.
func (a *app) creationFee(ctx context.Context) (*big.Int, string, error) {
	chain, err := a.chain(ctx)
	if err == nil {
		reader, rerr := chain.FactoryReader()
		if rerr == nil {
			fee, ferr := reader.CreationFee(ctx)
			if ferr == nil {
				return fee, "chain", nil
			}
			rerr = ferr
		}
		err = rerr
	}
	a.log.Warn("读取链上创建费用失败，使用配置值", slog.Any("error", err))
	fee, cerr := a.cfg.CreationFee()
	if cerr != nil {
		return nil, "", cerr
	}
	return fee, "config", nil
}

func tokenCreateCmd(a *app) *cobra.Command {
	var (
		params contract.CreateTokenParams
		supply string
		fee    string
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a token through the factory",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			total, ok := new(big.Int).SetString(supply, 10)
			if !ok {
				return errors.New("--supply 必须是整数")
			}
			params.TotalSupply = total

			m, err := a.manager(ctx)
			if err != nil {
				return err
			}
			if !m.IsConnected() {
				if _, err := m.ConnectWallet(ctx); err != nil {
					return err
				}
			}

			value, err := a.feeFromFlag(ctx, fee)
			if err != nil {
				return err
			}
			chain, err := a.chain(ctx)
			if err != nil {
				return err
			}
			exec, err := batch.NewExecutor(a.cfg.App.ChainID,
				batch.WithFactory(chain.Factory()),
				batch.WithPublisher(a.publisher),
			)
			if err != nil {
				return err
			}
			calls, err := exec.BuildCreateAction(params, value)
			if err != nil {
				return err
			}
			sender, err := a.sender(m.GetUser().Address)
			if err != nil {
				return err
			}

			out, err := exec.Execute(ctx, calls, web3.NewWallet(sender))
			if err != nil {
				return err
			}
			return a.print(executionView{
				RunID:     out.RunID,
				Reference: out.Reference,
				Mode:      string(out.Mode),
				Calls:     out.Calls,
				Submitted: out.Submitted,
				Warning:   out.Warning,
			})
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&params.Name, "name", "", "token name")
	flags.StringVar(&params.Symbol, "symbol", "", "token symbol (at most 10 characters)")
	flags.StringVar(&supply, "supply", "", "total supply")
	flags.Uint8Var(&params.Decimals, "decimals", 18, "token decimals")
	flags.StringVar(&params.LogoURL, "logo", "", "logo image URL")
	flags.StringVar(&params.BannerURL, "banner", "", "banner image URL")
	flags.StringVar(&fee, "fee", "", "creation fee in ether (default: read from the factory)")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("symbol")
	_ = cmd.MarkFlagRequired("supply")
	return cmd
}

func (a *app) feeFromFlag(ctx context.Context, fee string) (*big.Int, error) {
	if fee != "" {
		return contract.ParseEther(fee)
	}
	value, _, err := a.creationFee(ctx)
	return value, err
}
