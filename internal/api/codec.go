// Package api holds the wire vocabulary shared by the HTTP API, the gRPC
// service and the CLI client: JSON messages, the gRPC service description
// and a JSON codec for gRPC.
package api

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

// CodecName is the gRPC content-subtype of CodecJSON.
const CodecName = "json"

// CodecJSON marshals gRPC messages as JSON.
type CodecJSON struct{}

func (CodecJSON) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (CodecJSON) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (CodecJSON) Name() string {
	return CodecName
}

func init() {
	encoding.RegisterCodec(CodecJSON{})
}
