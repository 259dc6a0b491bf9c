// Package ingest drives ingestion runs over the four supported input shapes:
// a single bundle document, an archive of bundle documents, a line-delimited
// object stream, and an archive of such streams.
//
// Every run follows the same state machine: the node pass materializes all
// objects as nodes and fills the identifier index, then the relation pass
// resolves references into edges, then the storage handle is closed. Streams
// are read twice by reopening the input, so the parsed objects never need to
// be held in memory. Within one archive run the index persists across
// entries, letting later entries reference objects from earlier ones.
package ingest

import (
	"archive/zip"
	"bufio"
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/limengmingx/stixtoneolib/internal/graph"
	"github.com/limengmingx/stixtoneolib/internal/mapper"
	"github.com/limengmingx/stixtoneolib/internal/observability"
	"github.com/limengmingx/stixtoneolib/internal/stix"
	"github.com/limengmingx/stixtoneolib/internal/stix/taxonomy"
	"github.com/limengmingx/stixtoneolib/internal/types"
)

// Span names for traced ingestion runs.
const (
	SpanIngestBundle        = "stixtoneo.ingest.bundle"
	SpanIngestBundleArchive = "stixtoneo.ingest.bundle_archive"
	SpanIngestStream        = "stixtoneo.ingest.stream"
	SpanIngestStreamArchive = "stixtoneo.ingest.stream_archive"
)

// maxLineBytes bounds one line of a line-delimited stream. Individual objects
// can carry large embedded content, observed-data in particular.
const maxLineBytes = 16 * 1024 * 1024

// Mode selects which input shape an ingestion run expects.
type Mode string

const (
	ModeBundle        Mode = "bundle"
	ModeBundleArchive Mode = "bundle-archive"
	ModeStream        Mode = "stream"
	ModeStreamArchive Mode = "stream-archive"
)

// DetectMode infers the ingestion mode from the input path. Plain files are
// classified by extension; archives are classified by their entries, with a
// single stream entry making the whole archive a stream archive.
func DetectMode(path string) (Mode, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		return ModeBundle, nil
	case ".ndjson", ".jsonl":
		return ModeStream, nil
	case ".zip":
		zr, err := zip.OpenReader(path)
		if err != nil {
			return "", types.WrapError(types.INPUT_OPEN_FAILED, "failed to open archive "+path, err)
		}
		defer zr.Close()

		for _, f := range zr.File {
			if !f.FileInfo().IsDir() && isStreamEntry(f.Name) {
				return ModeStreamArchive, nil
			}
		}
		return ModeBundleArchive, nil
	default:
		return "", types.NewError(types.INPUT_UNSUPPORTED, "unsupported input extension: "+path)
	}
}

// Result summarizes one ingestion run.
type Result struct {
	// NodeCounts holds per-type node counts, keyed by the raw type tag.
	NodeCounts map[string]int

	// TotalNodes is the number of objects materialized as nodes. Satellite
	// nodes are not counted.
	TotalNodes int

	// TotalEdges is the number of edges created in the relation pass.
	TotalEdges int

	// Skipped counts units that could not be ingested: malformed documents,
	// malformed lines, unknown types, and rejected node writes.
	Skipped int

	// Entries is the number of data files processed.
	Entries int

	Duration time.Duration
}

// Ingester runs ingestion over a graph store. One Ingester can serve multiple
// runs; each entry point opens the storage handle, executes both passes, and
// closes the handle again.
type Ingester struct {
	client   graph.GraphClient
	registry taxonomy.TaxonomyRegistry
	logger   *observability.TracedLogger
	tracer   trace.Tracer
}

// New creates an Ingester writing through the given client.
func New(client graph.GraphClient, registry taxonomy.TaxonomyRegistry, logger *observability.TracedLogger) *Ingester {
	return &Ingester{
		client:   client,
		registry: registry,
		logger:   logger,
		tracer:   otel.Tracer("stixtoneo.ingest"),
	}
}

// Ingest dispatches to the entry point matching the mode.
func (i *Ingester) Ingest(ctx context.Context, path string, mode Mode) (*Result, error) {
	switch mode {
	case ModeBundle:
		return i.IngestBundleFile(ctx, path)
	case ModeBundleArchive:
		return i.IngestBundleArchive(ctx, path)
	case ModeStream:
		return i.IngestStreamFile(ctx, path)
	case ModeStreamArchive:
		return i.IngestStreamArchive(ctx, path)
	default:
		return nil, types.NewError(types.INPUT_UNSUPPORTED, "unknown ingestion mode: "+string(mode))
	}
}

// IngestBundleFile ingests a single bundle document.
func (i *Ingester) IngestBundleFile(ctx context.Context, path string) (*Result, error) {
	ctx, span := i.tracer.Start(ctx, SpanIngestBundle,
		trace.WithAttributes(attribute.String("input.path", path)))
	defer span.End()
	start := time.Now()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, i.fail(span, types.WrapError(types.INPUT_OPEN_FAILED, "failed to read input file "+path, err))
	}

	r, err := i.begin(ctx)
	if err != nil {
		return nil, i.fail(span, err)
	}

	if err := r.ingestBundle(ctx, data, path); err != nil {
		r.close(ctx)
		return nil, i.fail(span, err)
	}

	return i.finish(ctx, span, r, start)
}

// IngestBundleArchive ingests every bundle entry of an archive. The
// identifier index persists across entries, so references between entries
// resolve as long as the referenced entry was ingested first.
func (i *Ingester) IngestBundleArchive(ctx context.Context, path string) (*Result, error) {
	ctx, span := i.tracer.Start(ctx, SpanIngestBundleArchive,
		trace.WithAttributes(attribute.String("input.path", path)))
	defer span.End()
	start := time.Now()

	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, i.fail(span, types.WrapError(types.INPUT_OPEN_FAILED, "failed to open archive "+path, err))
	}
	defer zr.Close()

	r, err := i.begin(ctx)
	if err != nil {
		return nil, i.fail(span, err)
	}

	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		entryName := path + "!" + f.Name
		if !isBundleEntry(f.Name) {
			i.logger.Debug(ctx, "skipping non-bundle archive entry", "entry", entryName)
			continue
		}

		data, err := readArchiveEntry(f)
		if err != nil {
			i.logger.Error(ctx, "failed to read archive entry", "entry", entryName, "error", err)
			r.skipped++
			continue
		}

		if err := r.ingestBundle(ctx, data, entryName); err != nil {
			r.close(ctx)
			return nil, i.fail(span, err)
		}
	}

	return i.finish(ctx, span, r, start)
}

// IngestStreamFile ingests a single line-delimited stream, reading the file
// twice: once for the node pass and once for the relation pass.
func (i *Ingester) IngestStreamFile(ctx context.Context, path string) (*Result, error) {
	ctx, span := i.tracer.Start(ctx, SpanIngestStream,
		trace.WithAttributes(attribute.String("input.path", path)))
	defer span.End()
	start := time.Now()

	r, err := i.begin(ctx)
	if err != nil {
		return nil, i.fail(span, err)
	}

	if err := r.ingestStream(ctx, fileSource{path: path}); err != nil {
		r.close(ctx)
		return nil, i.fail(span, err)
	}

	return i.finish(ctx, span, r, start)
}

// IngestStreamArchive ingests every stream entry of an archive. Rewinding a
// stream inside an archive reopens that entry, decompressing it again.
func (i *Ingester) IngestStreamArchive(ctx context.Context, path string) (*Result, error) {
	ctx, span := i.tracer.Start(ctx, SpanIngestStreamArchive,
		trace.WithAttributes(attribute.String("input.path", path)))
	defer span.End()
	start := time.Now()

	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, i.fail(span, types.WrapError(types.INPUT_OPEN_FAILED, "failed to open archive "+path, err))
	}
	defer zr.Close()

	r, err := i.begin(ctx)
	if err != nil {
		return nil, i.fail(span, err)
	}

	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		if !isStreamEntry(f.Name) {
			i.logger.Debug(ctx, "skipping non-stream archive entry", "entry", path+"!"+f.Name)
			continue
		}

		if err := r.ingestStream(ctx, zipEntrySource{archive: path, file: f}); err != nil {
			r.close(ctx)
			return nil, i.fail(span, err)
		}
	}

	return i.finish(ctx, span, r, start)
}

// begin opens the storage handle and prepares a fresh run.
func (i *Ingester) begin(ctx context.Context) (*run, error) {
	if err := i.client.Connect(ctx); err != nil {
		return nil, types.WrapError(ErrCodeIngestStorageFailed, "failed to open storage handle", err)
	}

	index := mapper.NewIdentifierIndex(i.client)
	return &run{
		client:    i.client,
		index:     index,
		nodes:     mapper.NewNodeBuilder(i.client, index, i.registry, i.logger),
		relations: mapper.NewRelationBuilder(i.client, index, i.registry, i.logger),
		logger:    i.logger,
		state:     runIdle,
	}, nil
}

// finish closes the run, assembles the result, and logs the final counts.
func (i *Ingester) finish(ctx context.Context, span trace.Span, r *run, start time.Time) (*Result, error) {
	if err := r.close(ctx); err != nil {
		return nil, i.fail(span, err)
	}

	result := &Result{
		NodeCounts: r.nodes.Counts(),
		TotalNodes: r.nodes.Total(),
		TotalEdges: r.relations.EdgeCount(),
		Skipped:    r.skipped,
		Entries:    r.entries,
		Duration:   time.Since(start),
	}

	i.logger.Info(ctx, "ingestion complete",
		"entries", result.Entries,
		"total_nodes", result.TotalNodes,
		"total_edges", result.TotalEdges,
		"skipped", result.Skipped,
		"node_counts", result.NodeCounts,
		"duration_ms", result.Duration.Milliseconds())

	span.SetAttributes(
		attribute.Int("ingest.total_nodes", result.TotalNodes),
		attribute.Int("ingest.total_edges", result.TotalEdges),
		attribute.Int("ingest.skipped", result.Skipped),
		attribute.Int("ingest.entries", result.Entries),
	)
	span.SetStatus(codes.Ok, "")

	return result, nil
}

// fail records a fatal run error on the span.
func (i *Ingester) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

// readArchiveEntry decompresses one archive entry into memory.
func readArchiveEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, types.WrapError(types.INPUT_OPEN_FAILED, "failed to open archive entry "+f.Name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, types.WrapError(types.INPUT_READ_FAILED, "failed to read archive entry "+f.Name, err)
	}
	return data, nil
}

// runState tracks where a run is in the ingestion state machine.
type runState int

const (
	runIdle runState = iota
	runNodePass
	runRelationPass
	runClosed
)

// run holds the state of one ingestion run: the storage handle, the shared
// identifier index, both builders, and the pass state machine.
type run struct {
	client    graph.GraphClient
	index     *mapper.IdentifierIndex
	nodes     *mapper.NodeBuilder
	relations *mapper.RelationBuilder
	logger    *observability.TracedLogger

	state   runState
	skipped int
	entries int
}

// beginNodePass transitions into node creation. Valid from the idle state and
// from a completed relation pass, which starts the next archive entry.
func (r *run) beginNodePass() error {
	switch r.state {
	case runIdle, runRelationPass:
		r.state = runNodePass
		return nil
	default:
		return types.NewError(ErrCodeIngestInvalidState, "node pass not valid in current state")
	}
}

// beginRelationPass transitions into relation creation. Valid only after a
// node pass: every node must exist before any edge references it.
func (r *run) beginRelationPass() error {
	if r.state != runNodePass {
		return types.NewError(ErrCodeIngestInvalidState, "relation pass requires a completed node pass")
	}
	r.state = runRelationPass
	return nil
}

// close releases the storage handle. The run accepts no further passes.
func (r *run) close(ctx context.Context) error {
	if r.state == runClosed {
		return nil
	}
	r.state = runClosed

	if err := r.client.Close(ctx); err != nil {
		return types.WrapError(ErrCodeIngestStorageFailed, "failed to close storage handle", err)
	}
	return nil
}

// ingestBundle parses one bundle document and runs both passes over its
// objects. A document that does not parse is logged and skipped; the run
// continues with whatever input comes next.
func (r *run) ingestBundle(ctx context.Context, data []byte, name string) error {
	bundle, err := stix.ParseBundle(data)
	if err != nil {
		r.logger.Error(ctx, "failed to parse bundle document", "input", name, "error", err)
		r.skipped++
		return nil
	}
	r.entries++

	objects := make([]*stix.Object, 0, bundle.Len())
	for idx, raw := range bundle.Objects {
		obj, err := stix.ParseObject(raw)
		if err != nil {
			r.logger.Error(ctx, "failed to parse bundle object", "input", name, "index", idx, "error", err)
			r.skipped++
			continue
		}
		objects = append(objects, obj)
	}

	nodesBefore := r.nodes.Total()
	edgesBefore := r.relations.EdgeCount()

	if err := r.beginNodePass(); err != nil {
		return err
	}
	for _, obj := range objects {
		if err := r.nodes.CreateNodes(ctx, obj); err != nil {
			r.logger.Error(ctx, "failed to create node", "input", name, "object_id", obj.ID, "object_type", obj.Type, "error", err)
			r.skipped++
		}
	}

	if err := r.beginRelationPass(); err != nil {
		return err
	}
	for _, obj := range objects {
		if err := r.relations.CreateRelations(ctx, obj); err != nil {
			r.logger.Error(ctx, "failed to create relations", "input", name, "object_id", obj.ID, "object_type", obj.Type, "error", err)
		}
	}

	r.logger.Info(ctx, "entry ingested",
		"input", name,
		"objects", len(objects),
		"nodes", r.nodes.Total()-nodesBefore,
		"edges", r.relations.EdgeCount()-edgesBefore,
		"total_nodes", r.nodes.Total())
	return nil
}

// ingestStream runs both passes over a line-delimited stream, reopening the
// source for the second pass.
func (r *run) ingestStream(ctx context.Context, src resettableSource) error {
	r.entries++
	nodesBefore := r.nodes.Total()
	edgesBefore := r.relations.EdgeCount()

	if err := r.beginNodePass(); err != nil {
		return err
	}
	if err := r.streamPass(ctx, src, true); err != nil {
		return err
	}

	if err := r.beginRelationPass(); err != nil {
		return err
	}
	if err := r.streamPass(ctx, src, false); err != nil {
		return err
	}

	r.logger.Info(ctx, "entry ingested",
		"input", src.Name(),
		"nodes", r.nodes.Total()-nodesBefore,
		"edges", r.relations.EdgeCount()-edgesBefore,
		"total_nodes", r.nodes.Total())
	return nil
}

// streamPass reads the source line by line and applies one builder to every
// parseable object. Malformed lines are logged and skipped. Failing to open
// or read the source is fatal: a stream that cannot be read twice cannot
// uphold the two-pass contract.
func (r *run) streamPass(ctx context.Context, src resettableSource, nodePass bool) error {
	rc, err := src.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	scanner := bufio.NewScanner(rc)
	scanner.Buffer(make([]byte, 0, 1024*1024), maxLineBytes)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		obj, err := stix.ParseObject(line)
		if err != nil {
			r.logger.Error(ctx, "failed to parse stream line", "input", src.Name(), "line", lineNo, "error", err)
			if nodePass {
				r.skipped++
			}
			continue
		}

		if nodePass {
			if err := r.nodes.CreateNodes(ctx, obj); err != nil {
				r.logger.Error(ctx, "failed to create node", "input", src.Name(), "line", lineNo, "object_id", obj.ID, "error", err)
				r.skipped++
			}
		} else {
			if err := r.relations.CreateRelations(ctx, obj); err != nil {
				r.logger.Error(ctx, "failed to create relations", "input", src.Name(), "line", lineNo, "object_id", obj.ID, "error", err)
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return types.WrapError(types.INPUT_READ_FAILED, "failed to read stream "+src.Name(), err)
	}
	return nil
}
