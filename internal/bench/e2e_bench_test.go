package bench

import (
	"context"
	"io"
	"testing"

	"github.com/rs/zerolog"

	"pgbinload/internal/datagen"
	"pgbinload/internal/pgcopy"
	"pgbinload/internal/pipeline"
	"pgbinload/internal/schema"
	"pgbinload/internal/sink"
	"pgbinload/internal/storage"
)

// discardRepo accepts a COPY by draining the stream.
type discardRepo struct{}

func (discardRepo) Exec(context.Context, string) error { return nil }

func (discardRepo) CopyBinary(_ context.Context, _ string, cols []string, r io.Reader) (int64, error) {
	st, err := pgcopy.Verify(r, len(cols))
	return st.Rows, err
}

func (discardRepo) Close() {}

// BenchmarkEndToEnd measures generate + encode + hand-off of one batch of
// rows per iteration using the default column map, without a database.
//
// Run with:
//
//	go test -run=^$ -bench ^BenchmarkEndToEnd -cpuprofile cpu.out -memprofile mem.out -count=1
func BenchmarkEndToEnd(b *testing.B) {
	s, err := schema.ParseColumnMap("id=serial,column3=varchar(64),column4=text(128),column5=json,n=numeric,m=text(32):multibyte")
	if err != nil {
		b.Fatal(err)
	}
	const rows = 2000

	for _, mode := range []pipeline.Mode{pipeline.Materialized, pipeline.Streaming} {
		b.Run(mode.String(), func(b *testing.B) {
			ctx := context.Background()
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				out := sink.NewMemory()
				res, err := pipeline.Run(ctx, pipeline.Options{
					Mode:   mode,
					Rows:   rows,
					Schema: s,
					Source: datagen.NewGenerator(int64(i) + 1),
					Logger: zerolog.Nop(),
				}, pgcopy.NewEncoder(out, s))
				if err != nil {
					b.Fatalf("pipeline: %v", err)
				}
				b.SetBytes(res.Bytes)

				r, err := out.Rewind()
				if err != nil {
					b.Fatal(err)
				}
				if _, err := storage.Copy(ctx, discardRepo{}, storage.CopyRequest{
					Table:    "bench",
					Columns:  s.Names(),
					Stream:   r,
					Size:     out.Size(),
					WantRows: rows,
				}, zerolog.Nop()); err != nil {
					b.Fatalf("copy: %v", err)
				}
				_ = out.Close()
			}
		})
	}
}
