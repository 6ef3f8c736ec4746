// Command mosaicod-load is a bulk loader exercising the full write path
// end to end: it creates (or reuses) a sequence and topic, streams
// synthetic record batches through a TopicWriteFacade, and finalizes the
// topic, reporting progress the way the teacher's own CLI does.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"

	"mosaicod/internal/catalog"
	"mosaicod/internal/config"
	"mosaicod/internal/facade"
	"mosaicod/internal/query"
	"mosaicod/internal/store"
	"mosaicod/internal/types"
	"mosaicod/internal/writer"
)

var (
	cfgPath      = flag.String("cfg", "", "config path (TOML)")
	sequenceName = flag.String("sequence", "", "sequence name")
	topicNames   = flag.String("topics", "", "comma-separated topic names to load, one per goroutine")
	ontologyTag  = flag.String("ontology", "bulk-load", "topic ontology tag")
	format       = flag.String("format", "default", "chunk format: default, ragged, or image")
	totalRows    = flag.Int("rows", 1_000_000, "total rows to generate and write, per topic")
	batchRows    = flag.Int("batch-rows", 10_000, "rows per record batch")
	threads      = flag.Int("threads", 4, "max topics loaded concurrently")
	deletePrefix = flag.String("delete", "", "delete everything under this sequence or topic locator, then exit")
)

func main() {
	flag.Parse()

	if *cfgPath == "" {
		log.Fatal("mosaicod-load: -cfg is required")
	}
	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("mosaicod-load: %v", err)
	}

	ctx := context.Background()

	st, err := store.New(ctx, cfg.Store)
	if err != nil {
		log.Fatalf("mosaicod-load: open store: %v", err)
	}

	cat, err := catalog.Open(cfg.Catalog.Path)
	if err != nil {
		log.Fatalf("mosaicod-load: open catalog: %v", err)
	}
	defer cat.Close()

	if *deletePrefix != "" {
		if err := st.DeleteRecursive(ctx, *deletePrefix); err != nil {
			log.Fatalf("mosaicod-load: delete %q: %v", *deletePrefix, err)
		}
		fmt.Printf("deleted everything under %q\n", *deletePrefix)
		return
	}

	topics := splitTopics(*topicNames)
	if *sequenceName == "" || len(topics) == 0 {
		log.Fatal("mosaicod-load: -sequence and -topics are required")
	}

	fm, err := types.ParseFormat(*format)
	if err != nil {
		log.Fatalf("mosaicod-load: %v", err)
	}

	start := time.Now()
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(*threads)
	for _, topic := range topics {
		topic := topic
		eg.Go(func() error {
			return run(egCtx, cat, st, fm, cfg, topic)
		})
	}
	if err := eg.Wait(); err != nil {
		log.Fatalf("mosaicod-load: %v", err)
	}
	fmt.Printf("loaded %d rows into %d topic(s) in %s\n", *totalRows*len(topics), len(topics), time.Since(start))
}

func splitTopics(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func run(ctx context.Context, cat catalog.Catalog, st store.ObjectStore, fm types.Format, cfg *config.Config, topicName string) error {
	seqFacade := facade.NewSequenceFacade(cat)
	seqLocator := types.NewSequenceLocator(*sequenceName)
	seqID, err := seqFacade.Resolve(ctx, seqLocator)
	if types.IsKind(err, types.KindNotFound) {
		seqID, seqLocator, err = seqFacade.Create(ctx, *sequenceName, types.SequenceMetadata{})
	}
	if err != nil {
		return fmt.Errorf("resolve/create sequence: %w", err)
	}

	topicLocator := types.NewTopicLocator(fmt.Sprintf("%s/%s", seqLocator.Name(), topicName))
	topicID, _, err := cat.TopicResolve(ctx, topicLocator)
	if types.IsKind(err, types.KindNotFound) {
		topicID, err = cat.TopicCreate(ctx, seqID, topicLocator, types.TopicMetadata{
			Properties: types.TopicProperties{SerializationFormat: fm, OntologyTag: *ontologyTag},
		})
	}
	if err != nil {
		return fmt.Errorf("resolve/create topic %s: %w", topicName, err)
	}

	querier := query.NewParquetQuerier(st)
	tf, err := facade.NewTopicWriteFacade(cat, st, querier, seqID, topicID, topicLocator, fm)
	if err != nil {
		return fmt.Errorf("build topic write facade for %s: %w", topicName, err)
	}

	pool := writer.NewEncodePool(cfg.Writer.EncodePoolSize)
	schema := syntheticSchema()

	w, err := tf.Writer(ctx, schema, cfg.MaxChunkSize(), pool)
	if err != nil {
		return fmt.Errorf("open writer for %s: %w", topicName, err)
	}

	bar := progressbar.Default(int64(*totalRows), progressbar.OptionSetDescription(topicName))
	rng := rand.New(rand.NewSource(1))
	written := 0
	for written < *totalRows {
		n := *batchRows
		if remaining := *totalRows - written; n > remaining {
			n = remaining
		}
		rec := buildSyntheticBatch(schema, written, n, rng)
		err := w.Write(rec)
		rec.Release()
		if err != nil {
			return fmt.Errorf("write batch to %s: %w", topicName, err)
		}
		written += n
		bar.Add(n)
	}

	if err := w.Finalize(ctx); err != nil {
		return fmt.Errorf("finalize topic %s: %w", topicName, err)
	}
	return nil
}

func syntheticSchema() *arrow.Schema {
	return arrow.NewSchema([]arrow.Field{
		{Name: writer.TimestampColumn, Type: arrow.PrimitiveTypes.Int64},
		{Name: "value", Type: arrow.PrimitiveTypes.Float64},
		{Name: "label", Type: arrow.BinaryTypes.String},
	}, nil)
}

// buildSyntheticBatch generates n rows starting at rowOffset: a strictly
// increasing nanosecond timestamp, a Gaussian-ish value, and one of a
// small set of labels.
func buildSyntheticBatch(schema *arrow.Schema, rowOffset, n int, rng *rand.Rand) arrow.Record {
	labels := []string{"a", "b", "c", "d"}
	baseNs := int64(1_700_000_000) * int64(time.Second)

	b := array.NewRecordBuilder(memory.DefaultAllocator, schema)
	defer b.Release()

	tsBuilder := b.Field(0).(*array.Int64Builder)
	valBuilder := b.Field(1).(*array.Float64Builder)
	labelBuilder := b.Field(2).(*array.StringBuilder)

	for i := 0; i < n; i++ {
		row := rowOffset + i
		tsBuilder.Append(baseNs + int64(row)*int64(time.Millisecond))
		valBuilder.Append(rng.NormFloat64()*10 + 100)
		labelBuilder.Append(labels[rng.Intn(len(labels))])
	}
	return b.NewRecord()
}
