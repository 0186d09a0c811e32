package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/CosmWasm/tinyjson/jlexer"
	"github.com/CosmWasm/tinyjson/jwriter"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"condorcet_dao/internal/config"
	"condorcet_dao/sdk"
)

// request is one line of the serve input.
// Example payload: {"sender":"hive:alice","height":12,"msg":{"vote":{"proposal_id":1,"vote":[2,0,1]}}}
type request struct {
	Sender sdk.Address
	Height uint64
	Time   time.Time
	Query  bool
	Msg    []byte
}

func (r *request) UnmarshalTinyJSON(in *jlexer.Lexer) {
	isTopLevel := in.IsStart()
	in.Delim('{')
	for !in.IsDelim('}') {
		key := in.UnsafeFieldName(false)
		in.WantColon()
		switch key {
		case "sender":
			r.Sender = sdk.Address(in.String())
		case "height":
			r.Height = in.Uint64()
		case "time":
			t, err := time.Parse(time.RFC3339, in.String())
			if err != nil {
				in.AddError(err)
			}
			r.Time = t
		case "query":
			r.Query = in.Bool()
		case "msg":
			r.Msg = append([]byte(nil), in.Raw()...)
		default:
			in.SkipRecursive()
		}
		in.WantComma()
	}
	in.Delim('}')
	if isTopLevel {
		in.Consumed()
	}
}

func writeReply(w io.Writer, res []byte, err error) {
	out := jwriter.Writer{}
	if err != nil {
		out.RawString(`{"ok":false,"error":`)
		out.String(err.Error())
	} else {
		out.RawString(`{"ok":true,"result":`)
		out.Raw(res, nil)
	}
	out.RawString("}\n")
	_, _ = out.DumpTo(w)
}

// serveLines answers every request line in order. Calls without a time use the previous block time,
// advanced 5 seconds per height step.
func (h *host) serveLines(cfg *config.Config, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	last := sdk.BlockInfo{Time: time.Now().UTC(), ChainID: cfg.ChainID}
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var req request
		l := jlexer.Lexer{Data: line}
		req.UnmarshalTinyJSON(&l)
		if err := l.Error(); err != nil {
			writeReply(out, nil, fmt.Errorf("invalid request: %w", err))
			continue
		}
		block := sdk.BlockInfo{Height: req.Height, Time: req.Time, ChainID: cfg.ChainID}
		if block.Time.IsZero() {
			block.Time = last.Time
			if block.Height > last.Height {
				block.Time = last.Time.Add(time.Duration(block.Height-last.Height) * 5 * time.Second)
			}
		}
		last = block
		env := sdk.Env{Block: block, Sender: req.Sender, Contract: "contract:" + programName}

		var res []byte
		var err error
		if req.Query {
			res, err = h.query(env, req.Msg)
		} else {
			res, err = h.handle(env, req.Msg)
		}
		if err != nil {
			h.logger.Debug().Err(err).Str("sender", req.Sender.String()).Uint64("height", req.Height).Msg("call failed")
		}
		writeReply(out, res, err)
	}
	return scanner.Err()
}

func startMetrics(h *host, addr string, logger zerolog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(h.registry, promhttp.HandlerOpts{}))
	metricsServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 60 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil &&
			!errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("failed to start metrics listener")
		}
	}()
	logger.Info().Str("addr", addr).Msg("serving prometheus metrics")
	return metricsServer
}

func serveCommand() *cobra.Command {
	var noMetrics bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Answer json lines on stdin as execute or query calls, serving metrics meanwhile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHost(cmd, func(h *host, cfg *config.Config) error {
				if !noMetrics && cfg.MetricsListenAddr != "" {
					srv := startMetrics(h, cfg.MetricsListenAddr, h.logger)
					defer func() {
						ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
						defer cancel()
						_ = srv.Shutdown(ctx)
					}()
				}
				return h.serveLines(cfg, cmd.InOrStdin(), cmd.OutOrStdout())
			})
		},
	}
	cmd.Flags().BoolVar(&noMetrics, "no-metrics", false, "do not start the metrics listener")
	return cmd
}
