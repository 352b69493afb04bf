// Package workerpb contains proto message types for the extraction worker
// service. This is a hand-written stub. Replace with protoc-generated code
// when available.
//
//go:generate protoc --go_out=. --go-grpc_out=. ../../proto/worker.proto
package workerpb

import (
	"context"

	"google.golang.org/grpc"
)

// Chunk is one retrieved chunk offered as evidence.
type Chunk struct {
	ChunkId string
	Text    string
}

// ExtractRequest carries one datapoint's composed prompt to the worker.
type ExtractRequest struct {
	DatapointKey     string
	DatapointTitle   string
	DisclosureRef    string
	DatapointType    string
	RequiresBaseline bool
	Chunks           []*Chunk
}

// ExtractResponse is the worker's schema-constrained extraction record.
// Optional scalar fields carry an explicit Has* flag in place of proto3
// "optional" wrapper types.
type ExtractResponse struct {
	Status           string
	Value            float64
	HasValue         bool
	Unit             string
	HasUnit          bool
	Year             int32
	HasYear          bool
	BaselineYear     int32
	HasBaselineYear  bool
	BaselineValue    float64
	HasBaselineValue bool
	EvidenceChunkIds []string
	Rationale        string
	ProviderName     string
}

// ExtractionServiceClient is the client API for ExtractionService.
type ExtractionServiceClient interface {
	Extract(ctx context.Context, in *ExtractRequest, opts ...grpc.CallOption) (*ExtractResponse, error)
}

type extractionServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewExtractionServiceClient creates a new ExtractionService client.
func NewExtractionServiceClient(cc grpc.ClientConnInterface) ExtractionServiceClient {
	return &extractionServiceClient{cc}
}

func (c *extractionServiceClient) Extract(ctx context.Context, in *ExtractRequest, opts ...grpc.CallOption) (*ExtractResponse, error) {
	out := new(ExtractResponse)
	if err := c.cc.Invoke(ctx, "/verascope.extraction.v1.ExtractionService/Extract", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// ExtractionServiceServer is the server API for ExtractionService.
type ExtractionServiceServer interface {
	Extract(ctx context.Context, req *ExtractRequest) (*ExtractResponse, error)
}

// RegisterExtractionServiceServer registers srv's implementation with s.
func RegisterExtractionServiceServer(s grpc.ServiceRegistrar, srv ExtractionServiceServer) {
	s.RegisterService(&extractionServiceDesc, srv)
}

func extractHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ExtractRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ExtractionServiceServer).Extract(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/verascope.extraction.v1.ExtractionService/Extract",
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ExtractionServiceServer).Extract(ctx, req.(*ExtractRequest))
	}
	return interceptor(ctx, in, info, handler)
}

var extractionServiceDesc = grpc.ServiceDesc{
	ServiceName: "verascope.extraction.v1.ExtractionService",
	HandlerType: (*ExtractionServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Extract",
			Handler:    extractHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "worker.proto",
}
