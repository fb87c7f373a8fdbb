package bulkimport

import (
	"context"
	"fmt"
	"log/slog"
)

// Pipeline submits the valid records of a preview.
type Pipeline struct {
	// ChunkSize defaults to DefaultChunkSize.
	ChunkSize  int
	Submitter  Submitter
	OnProgress ProgressFunc
	Logger     *slog.Logger
}

// Confirm sends preview.ValidPayloads in chunks, strictly one after another.
// The batch id from the first response carrying one is passed on every
// following chunk. A failing chunk is counted as failed in full and recorded
// in Result.Errors; the remaining chunks are still sent. Each chunk is
// attempted once.
//
// ctx is handed to the submitter only. Once started, Confirm runs every chunk.
func (p *Pipeline) Confirm(ctx context.Context, preview *Preview) Result {
	var res Result
	if preview == nil || len(preview.ValidPayloads) == 0 {
		return res
	}

	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	chunks := Chunk(preview.ValidPayloads, p.ChunkSize)
	total := len(preview.ValidPayloads)
	progress := Progress{Total: total}
	res.Chunks = len(chunks)

	var batchID *string
	for i, chunk := range chunks {
		resp, err := p.submit(ctx, chunk, batchID)
		if err != nil {
			res.Failed += len(chunk)
			msg := fmt.Sprintf("Parça %d/%d gönderilemedi: %v", i+1, len(chunks), err)
			res.Errors = append(res.Errors, msg)
			logger.Warn("bulk chunk failed",
				"file", preview.FileName,
				"chunk", i+1,
				"chunks", len(chunks),
				"size", len(chunk),
				"error", err,
			)
		} else {
			res.Success += resp.Created
			res.Failed += resp.Failed
			if batchID == nil && resp.BatchID != "" {
				id := resp.BatchID
				batchID = &id
				res.BatchID = id
			}
		}

		progress.Processed += len(chunk)
		if p.OnProgress != nil {
			p.OnProgress(progress)
		}
	}

	logger.Info("bulk import finished",
		"file", preview.FileName,
		"records", total,
		"chunks", len(chunks),
		"success", res.Success,
		"failed", res.Failed,
		"batch_id", res.BatchID,
	)
	return res
}

// submit shields the loop from a panicking submitter so one chunk can never
// take the rest of the import with it.
func (p *Pipeline) submit(ctx context.Context, chunk []Record, batchID *string) (resp ChunkResponse, err error) {
	if p.Submitter == nil {
		return resp, fmt.Errorf("no submitter configured")
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("submitter panic: %v", r)
		}
	}()
	return p.Submitter.SubmitChunk(ctx, chunk, batchID)
}

// Chunk splits records into consecutive slices of at most size elements.
// A size <= 0 uses DefaultChunkSize.
func Chunk(records []Record, size int) [][]Record {
	if size <= 0 {
		size = DefaultChunkSize
	}
	chunks := make([][]Record, 0, (len(records)+size-1)/size)
	for start := 0; start < len(records); start += size {
		end := min(start+size, len(records))
		chunks = append(chunks, records[start:end])
	}
	return chunks
}
