package extraction

import (
	"context"
	"errors"
	"fmt"

	"github.com/verascope/verascope/internal/extraction/provider"
	"github.com/verascope/verascope/internal/extraction/workerpb"
)

// workerServer adapts a provider.Factory to the workerpb.ExtractionServiceServer
// contract, giving the extraction worker pool a real service boundary even
// though every call stays in-process over bufconn.
type workerServer struct {
	factory *provider.Factory
}

func newWorkerServer(factory *provider.Factory) *workerServer {
	return &workerServer{factory: factory}
}

// Extract selects a provider via the factory's breaker-aware fallback,
// invokes it, and reports the outcome back to the factory's breaker for
// that provider.
func (s *workerServer) Extract(ctx context.Context, req *workerpb.ExtractRequest) (*workerpb.ExtractResponse, error) {
	p, err := s.factory.GetProvider()
	if err != nil {
		return nil, fmt.Errorf("extraction worker: %w", err)
	}

	rec, err := p.Extract(ctx, toProviderRequest(req))
	if err != nil {
		if !errors.Is(err, provider.ErrSchemaViolation) {
			s.factory.ReportFailure(p.Name())
		}
		return nil, err
	}
	s.factory.ReportSuccess(p.Name())

	resp := toWorkerResponse(rec)
	resp.ProviderName = p.Name()
	return resp, nil
}

func toProviderRequest(req *workerpb.ExtractRequest) *provider.Request {
	chunks := make([]provider.Chunk, len(req.Chunks))
	for i, c := range req.Chunks {
		chunks[i] = provider.Chunk{ChunkID: c.ChunkId, Text: c.Text}
	}
	return &provider.Request{
		DatapointKey:     req.DatapointKey,
		DatapointTitle:   req.DatapointTitle,
		DisclosureRef:    req.DisclosureRef,
		DatapointType:    req.DatapointType,
		RequiresBaseline: req.RequiresBaseline,
		Chunks:           chunks,
	}
}

func toWorkerResponse(rec *provider.Record) *workerpb.ExtractResponse {
	resp := &workerpb.ExtractResponse{
		Status:           rec.Status,
		EvidenceChunkIds: rec.EvidenceChunkIDs,
		Rationale:        rec.Rationale,
	}
	if rec.Value != nil {
		resp.Value, resp.HasValue = *rec.Value, true
	}
	if rec.Unit != nil {
		resp.Unit, resp.HasUnit = *rec.Unit, true
	}
	if rec.Year != nil {
		resp.Year, resp.HasYear = int32(*rec.Year), true
	}
	if rec.BaselineYear != nil {
		resp.BaselineYear, resp.HasBaselineYear = int32(*rec.BaselineYear), true
	}
	if rec.BaselineValue != nil {
		resp.BaselineValue, resp.HasBaselineValue = *rec.BaselineValue, true
	}
	return resp
}
