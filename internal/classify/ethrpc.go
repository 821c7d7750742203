package classify

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/portsleuth/portsleuth/internal/model"
)

// rpcResponseLimit bounds how much of an RPC response is read.
// A web3_clientVersion reply is a few hundred bytes; 64KB leaves room
// for verbose proxies in front of the node.
const rpcResponseLimit = 64 * 1024

// EthRPCStrategy detects Ethereum JSON-RPC nodes.
//
// It applies only to ports in the configured RPC set and runs before the
// generic HTTP probe because an RPC node also answers plain HTTP: probing
// order is what distinguishes "Ethereum node" from "some web server".
// Detection sends a web3_clientVersion call over HTTP and accepts any
// well-formed JSON-RPC envelope in response.
type EthRPCStrategy struct {
	x     *exchanger
	ports map[int]bool
}

// NewEthRPCStrategy creates the JSON-RPC detection strategy for the
// given port set.
func NewEthRPCStrategy(x *exchanger, rpcPorts []int) *EthRPCStrategy {
	return &EthRPCStrategy{
		x:     x,
		ports: portSet(rpcPorts),
	}
}

// Name returns the strategy name.
func (s *EthRPCStrategy) Name() string {
	return "ethrpc"
}

// rpcEnvelope is the JSON-RPC 2.0 response shape we accept.
type rpcEnvelope struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  string          `json:"result"`
	Error   *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Detect sends a web3_clientVersion request and parses the reply.
// A well-formed envelope labels the port EthereumRPC with the node's
// reported client version; anything else falls through to the next
// strategy.
func (s *EthRPCStrategy) Detect(ctx context.Context, port int) *model.ServiceInfo {
	if !s.ports[port] {
		return nil
	}

	body := `{"jsonrpc":"2.0","method":"web3_clientVersion","params":[],"id":1}`
	request := fmt.Sprintf(
		"POST / HTTP/1.1\r\n"+
			"Host: %s\r\n"+
			"Content-Type: application/json\r\n"+
			"Content-Length: %d\r\n"+
			"Connection: close\r\n"+
			"\r\n"+
			"%s",
		s.x.addr(port), len(body), body,
	)

	raw, err := s.x.roundTrip(ctx, port, []byte(request), rpcResponseLimit)
	if err != nil {
		return nil
	}

	envelope, ok := parseRPCResponse(raw)
	if !ok {
		return nil
	}

	info := &model.ServiceInfo{
		Service: model.ServiceEthereumRPC,
		Version: envelope.Result,
	}
	if envelope.Result == "" {
		// The node answered the envelope but refused the method
		// (common on restricted endpoints); still an RPC service.
		info.Version = "JSON-RPC 2.0"
	}
	return info
}

// parseRPCResponse extracts a JSON-RPC envelope from a raw HTTP response.
// It tolerates bare JSON bodies (some nodes are fronted by proxies that
// strip the HTTP framing from our naive read).
func parseRPCResponse(raw []byte) (rpcEnvelope, bool) {
	body := raw
	if bytes.HasPrefix(raw, []byte("HTTP/")) {
		resp, err := http.ReadResponse(bufio.NewReader(bytes.NewReader(raw)), nil)
		if err != nil {
			return rpcEnvelope{}, false
		}
		defer resp.Body.Close()

		body, err = io.ReadAll(resp.Body)
		if err != nil && len(body) == 0 {
			return rpcEnvelope{}, false
		}
	}

	var envelope rpcEnvelope
	if err := json.Unmarshal(bytes.TrimSpace(body), &envelope); err != nil {
		return rpcEnvelope{}, false
	}

	// A well-formed envelope carries the version marker and either a
	// result or a structured error.
	if envelope.JSONRPC == "" {
		return rpcEnvelope{}, false
	}
	if envelope.Result == "" && envelope.Error == nil {
		return rpcEnvelope{}, false
	}
	return envelope, true
}
