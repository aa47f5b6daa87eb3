package taskpb

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

// jsonCodec implements google.golang.org/grpc/encoding.Codec using
// encoding/json instead of reflection-based protobuf marshaling. It is
// registered under the name "proto" (grpc-go's default codec name),
// which overrides the default codec lookup for every gRPC call in this
// process — the documented technique for swapping grpc-go's wire codec
// without per-call RegisterCodec calls (see
// google.golang.org/grpc/encoding.RegisterCodec). This exists because
// the pack this repo was built from has no protoc/protoc-gen-go-grpc
// available to generate a real protobuf codec for these messages
// (SPEC_FULL.md §3.3); everything else about the transport (the
// grpc.Server, interceptors, codes/status, deadlines) is genuine
// grpc-go.
type jsonCodec struct{}

func (jsonCodec) Name() string { return "proto" }

func (jsonCodec) Marshal(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

func init() {
	encoding.RegisterCodec(jsonCodec{})
}
