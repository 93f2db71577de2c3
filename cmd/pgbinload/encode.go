package main

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/zeebo/xxh3"

	"pgbinload/internal/config"
	"pgbinload/internal/pgcopy"
	"pgbinload/internal/pipeline"
)

func newEncodeCmd() *cobra.Command {
	var (
		outPath string
		verify  bool
	)
	cmd := &cobra.Command{
		Use:   "encode",
		Short: "Write the binary COPY stream to a file without touching a database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			log := newLogger(cmd, cfg)
			s, issues := config.ValidateConfig(cfg)
			// The connection string is irrelevant here.
			var relevant []config.Issue
			for _, iss := range issues {
				if iss.Path != "connection_string" {
					relevant = append(relevant, iss)
				}
			}
			if err := reportIssues(log, relevant); err != nil {
				return err
			}

			seed := cfg.Seed
			if seed == 0 {
				seed = nowFn().UnixNano()
			}
			mode := pipeline.Materialized
			if cfg.StreamData {
				mode = pipeline.Streaming
			}

			f, err := os.Create(outPath)
			if err != nil {
				return err
			}
			defer f.Close()
			bw := bufio.NewWriter(f)
			h := xxh3.New()

			res, err := encode(cmd.Context(), cfg, s, mode, seed, io.MultiWriter(bw, h), log)
			if err != nil {
				return err
			}
			if err := bw.Flush(); err != nil {
				return fmt.Errorf("flush %s: %w", outPath, err)
			}

			rep := report{
				Table:      cfg.TableName,
				Mode:       mode,
				Seed:       seed,
				Rows:       res.Rows,
				StreamSize: res.Bytes,
				Checksum:   h.Sum64(),
				StreamTime: res.Duration,
				Overall:    res.Duration,
			}
			if verify {
				if _, err := f.Seek(0, io.SeekStart); err != nil {
					return err
				}
				st, err := pgcopy.Verify(bufio.NewReader(f), s.NonSerialLen())
				if err != nil {
					return fmt.Errorf("verify %s: %w", outPath, err)
				}
				log.Info().Int64("rows", st.Rows).Int("fields", st.Fields).Int64("nulls", st.Nulls).Msg("stream verified")
			}
			return rep.write(cmd.OutOrStdout())
		},
	}
	addDataFlags(cmd.Flags())
	cmd.Flags().String("inspect", "", "path prefix for a CSV dump of the generated table (materialized runs only)")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "file to write the stream to")
	cmd.Flags().BoolVar(&verify, "verify", false, "read the file back and check its framing")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}
