// Package extraction dispatches per-datapoint schema-constrained extraction
// calls to an in-process worker over gRPC-over-bufconn, enforces the
// pre-persistence evidence-gating rule, and computes prompt_hash — the
// extraction adapter of spec §4.8.
package extraction

import (
	"context"
	"fmt"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"

	"github.com/verascope/verascope/internal/domain"
	"github.com/verascope/verascope/internal/extraction/provider"
	"github.com/verascope/verascope/internal/extraction/workerpb"
	"github.com/verascope/verascope/internal/retrieval"
)

const bufSize = 1 << 20

// EvidenceMissingDetail is the detail string recorded when a Present/Partial
// candidate is downgraded to Absent for lacking cited evidence.
const EvidenceMissingDetail = "provider returned Present/Partial with no evidence_chunk_ids"

// Adapter composes a retrieval query, retrieves top-k chunks, dispatches
// the extraction call to the in-process worker, and applies the
// pre-persistence evidence gate.
type Adapter struct {
	retriever *retrieval.Retriever
	params    retrieval.Params

	listener   *bufconn.Listener
	grpcServer *grpc.Server
	conn       *grpc.ClientConn
	client     workerpb.ExtractionServiceClient
}

// New creates an Adapter backed by retriever and factory, starting the
// in-process worker server immediately. Close must be called to release
// its resources.
func New(retriever *retrieval.Retriever, params retrieval.Params, factory *provider.Factory) (*Adapter, error) {
	listener := bufconn.Listen(bufSize)
	grpcServer := grpc.NewServer()
	workerpb.RegisterExtractionServiceServer(grpcServer, newWorkerServer(factory))
	go grpcServer.Serve(listener)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return listener.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		grpcServer.Stop()
		return nil, fmt.Errorf("extraction: dial in-process worker: %w", err)
	}

	return &Adapter{
		retriever:  retriever,
		params:     params,
		listener:   listener,
		grpcServer: grpcServer,
		conn:       conn,
		client:     workerpb.NewExtractionServiceClient(conn),
	}, nil
}

// Close releases the Adapter's in-process worker connection and server.
func (a *Adapter) Close() error {
	err := a.conn.Close()
	a.grpcServer.Stop()
	return err
}

// Result is one datapoint's extraction outcome, ready for verification (C9).
type Result struct {
	Assessment domain.Assessment
	Diagnostic domain.ExtractionDiagnostic
}

// ExtractOne builds the retrieval query, retrieves top-k chunks, composes
// and dispatches the extraction prompt, enforces the evidence gate, and
// returns the not-yet-verified Assessment and Diagnostic for one datapoint.
func (a *Adapter) ExtractOne(ctx context.Context, runID, tenant, companyID string, dp domain.Datapoint) (*Result, error) {
	query := BuildQuery(dp.Title, dp.DisclosureRef)

	results, err := a.retriever.Retrieve(ctx, tenant, companyID, query, a.params)
	if err != nil {
		return nil, fmt.Errorf("extraction: retrieve chunks for %s: %w", dp.DatapointKey, err)
	}

	chunkIDs := make([]string, len(results))
	chunkTexts := make([]string, len(results))
	workerChunks := make([]*workerpb.Chunk, len(results))
	for i, r := range results {
		chunkIDs[i] = r.Chunk.ChunkID
		chunkTexts[i] = r.Chunk.Text
		workerChunks[i] = &workerpb.Chunk{ChunkId: r.Chunk.ChunkID, Text: r.Chunk.Text}
	}

	prompt := ComposePrompt(dp.DatapointKey, string(dp.DatapointType), dp.RequiresBaseline, chunkIDs, chunkTexts)
	promptHash, err := PromptHash(prompt)
	if err != nil {
		return nil, fmt.Errorf("extraction: compute prompt_hash for %s: %w", dp.DatapointKey, err)
	}

	resp, err := a.client.Extract(ctx, &workerpb.ExtractRequest{
		DatapointKey:     dp.DatapointKey,
		DatapointTitle:   dp.Title,
		DisclosureRef:    dp.DisclosureRef,
		DatapointType:    string(dp.DatapointType),
		RequiresBaseline: dp.RequiresBaseline,
		Chunks:           workerChunks,
	})
	if err != nil {
		return nil, fmt.Errorf("extraction: worker call for %s: %w", dp.DatapointKey, err)
	}

	assessment, diagnostic := applyEvidenceGate(runID, dp.DatapointKey, promptHash, a.params.ToRetrievalParams(), chunkIDs, resp)
	return &Result{Assessment: assessment, Diagnostic: diagnostic}, nil
}

// applyEvidenceGate enforces spec §4.8 step 5: a Present/Partial candidate
// with no cited evidence is downgraded to Absent before persistence.
func applyEvidenceGate(runID, datapointKey, promptHash string, retrievalParams domain.RetrievalParams, retrievedChunkIDs []string, resp *workerpb.ExtractResponse) (domain.Assessment, domain.ExtractionDiagnostic) {
	status := domain.AssessmentStatus(resp.Status)
	failureReason := domain.FailureReasonCode("")

	if (status == domain.StatusPresent || status == domain.StatusPartial) && len(resp.EvidenceChunkIds) == 0 {
		status = domain.StatusAbsent
		failureReason = domain.FailureEvidenceMissing
		resp = &workerpb.ExtractResponse{Status: string(domain.StatusAbsent), Rationale: EvidenceMissingDetail}
	}

	assessment := domain.Assessment{
		RunID:            runID,
		DatapointKey:     datapointKey,
		Status:           status,
		Rationale:        resp.Rationale,
		EvidenceChunkIDs: resp.EvidenceChunkIds,
		PromptHash:       promptHash,
		RetrievalParams:  retrievalParams,
	}
	if resp.HasValue {
		v := resp.Value
		assessment.Value = &v
	}
	if resp.HasUnit {
		u := resp.Unit
		assessment.Unit = &u
	}
	if resp.HasYear {
		y := int(resp.Year)
		assessment.Year = &y
	}
	if resp.HasBaselineYear {
		by := int(resp.BaselineYear)
		assessment.BaselineYear = &by
	}
	if resp.HasBaselineValue {
		bv := resp.BaselineValue
		assessment.BaselineValue = &bv
	}

	diagnostic := domain.ExtractionDiagnostic{
		RunID:              runID,
		DatapointKey:       datapointKey,
		RetrievedChunkIDs:  retrievedChunkIDs,
		VerificationStatus: status,
		FailureReasonCode:  failureReason,
	}

	return assessment, diagnostic
}
