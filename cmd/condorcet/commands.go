package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/CosmWasm/tinyjson"
	"github.com/CosmWasm/tinyjson/jwriter"
	"github.com/spf13/cobra"

	"condorcet_dao/contract"
	"condorcet_dao/contract/condorcet"
	"condorcet_dao/internal/config"
)

// envelope wraps body as {"name":body}, the shape Handle and Query route on.
func envelope(name string, body tinyjson.Marshaler) []byte {
	w := jwriter.Writer{}
	w.RawString(`{"` + name + `":`)
	body.MarshalTinyJSON(&w)
	w.RawByte('}')
	return w.Buffer.BuildBytes()
}

// runHandle sends one execute payload and prints the response.
func runHandle(cmd *cobra.Command, payload []byte) error {
	return withHost(cmd, func(h *host, cfg *config.Config) error {
		env, err := blockEnv(cfg)
		if err != nil {
			return err
		}
		res, err := h.handle(env, payload)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(res))
		return nil
	})
}

func runQuery(cmd *cobra.Command, payload []byte) error {
	return withHost(cmd, func(h *host, cfg *config.Config) error {
		env, err := blockEnv(cfg)
		if err != nil {
			return err
		}
		res, err := h.query(env, payload)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(res))
		return nil
	})
}

func withHost(cmd *cobra.Command, fn func(h *host, cfg *config.Config) error) error {
	cfg := config.FromContext(cmd.Context())
	if cfg == nil {
		return fmt.Errorf("no config found in context")
	}
	h, err := openHost(cfg, commonRun(cfg))
	if err != nil {
		return err
	}
	defer h.Close()
	return fn(h, cfg)
}

func parseID(s string) (uint32, error) {
	id, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid proposal id %q", s)
	}
	return uint32(id), nil
}

func initCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Instantiate the module with the configured policy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.FromContext(cmd.Context())
			if cfg == nil {
				return fmt.Errorf("no config found in context")
			}
			mod, err := cfg.ModuleConfig()
			if err != nil {
				return err
			}
			return runHandle(cmd, envelope("instantiate", mod))
		},
	}
}

func proposeCommand() *cobra.Command {
	var description string
	var msgs []string
	cmd := &cobra.Command{
		Use:   "propose <title> <choice> <choice> [choice...]",
		Short: "Create a ranked choice proposal",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			msg := contract.ProposeMsg{Title: args[0], Description: description}
			for _, title := range args[1:] {
				msg.Choices = append(msg.Choices, condorcet.Choice{Title: title})
			}
			for _, m := range msgs {
				idx, raw, found := strings.Cut(m, "=")
				i, err := strconv.Atoi(idx)
				if !found || err != nil || i < 0 || i >= len(msg.Choices) {
					return fmt.Errorf("invalid --msg %q, want <choice index>=<json>", m)
				}
				if !json.Valid([]byte(raw)) {
					return fmt.Errorf("invalid --msg %q: not json", m)
				}
				msg.Choices[i].Msgs = append(msg.Choices[i].Msgs, json.RawMessage(raw))
			}
			return runHandle(cmd, envelope("propose", msg))
		},
	}
	cmd.Flags().StringVar(&description, "description", "", "proposal description")
	cmd.Flags().StringArrayVar(&msgs, "msg", nil, "message run if a choice wins, as <choice index>=<json> (repeatable)")
	return cmd
}

func voteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "vote <proposal id> <ranking>",
		Short: "Rank every choice, most preferred first (e.g. 2,0,1)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			ranking, err := condorcet.ParseRanking(args[1])
			if err != nil {
				return err
			}
			return runHandle(cmd, envelope("vote", contract.VoteMsg{ProposalID: id, Vote: ranking}))
		},
	}
}

func proposalIDCommand(use, short, msgName string, query bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <proposal id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			payload := envelope(msgName, contract.ProposalIDMsg{ProposalID: id})
			if query {
				return runQuery(cmd, payload)
			}
			return runHandle(cmd, payload)
		},
	}
}

func executeCommand() *cobra.Command {
	return proposalIDCommand("execute", "Dispatch the winning choice of a passed proposal", "execute", false)
}

func closeCommand() *cobra.Command {
	return proposalIDCommand("close", "Close a rejected proposal", "close", false)
}

func showCommand() *cobra.Command {
	return proposalIDCommand("show", "Print a proposal with its tally and current status", "proposal", true)
}

type listMsg struct {
	startAfter uint32
	limit      uint32
}

func (m listMsg) MarshalTinyJSON(out *jwriter.Writer) {
	out.RawString(`{"start_after":`)
	out.Uint32(m.startAfter)
	out.RawString(`,"limit":`)
	out.Uint32(m.limit)
	out.RawByte('}')
}

func listCommand() *cobra.Command {
	var msg listMsg
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List proposals in id order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, envelope("list_proposals", msg))
		},
	}
	cmd.Flags().Uint32Var(&msg.startAfter, "start-after", 0, "list proposals after this id")
	cmd.Flags().Uint32Var(&msg.limit, "limit", 0, "page size (default 10, max 30)")
	return cmd
}

type ballotMsg struct {
	id    uint32
	voter string
}

func (m ballotMsg) MarshalTinyJSON(out *jwriter.Writer) {
	out.RawString(`{"proposal_id":`)
	out.Uint32(m.id)
	out.RawString(`,"voter":`)
	out.String(m.voter)
	out.RawByte('}')
}

func ballotCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ballot <proposal id> <voter>",
		Short: "Print the ballot receipt of a voter",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return runQuery(cmd, envelope("ballot", ballotMsg{id: id, voter: args[1]}))
		},
	}
}
