package solver

import (
	"context"
	_ "embed"
	"fmt"
	"strconv"
	"strings"

	"github.com/jhump/protoreflect/desc"
	"github.com/jhump/protoreflect/desc/protoparse"
	"github.com/jhump/protoreflect/dynamic"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/exprsynth/synth/internal/eval"
	"github.com/exprsynth/synth/internal/expr"
)

//go:embed proto/solver.proto
var solverProtoSrc string

// RemoteSolver dispatches Satisfy/Valid/Satisfiable to an out-of-process
// SMT service over gRPC. Requests and responses are built as protoreflect
// dynamic messages from the embedded solver.proto schema rather than
// generated stubs — the same technique the teacher's grpcInvoke builtin
// uses to call services whose .proto is only known at runtime.
type RemoteSolver struct {
	conn *grpc.ClientConn
	fd   *desc.FileDescriptor
}

// NewRemoteSolver dials target and parses the embedded schema. The
// connection is lazy (grpc.NewClient does not block on the network), so
// a bad target only surfaces once the first call is made.
func NewRemoteSolver(target string) (*RemoteSolver, error) {
	conn, err := grpc.NewClient(target, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("solver: dialing remote backend %s: %w", target, err)
	}
	parser := protoparse.Parser{
		Accessor: protoparse.FileContentsFromMap(map[string]string{"solver.proto": solverProtoSrc}),
	}
	fds, err := parser.ParseFiles("solver.proto")
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("solver: parsing embedded schema: %w", err)
	}
	return &RemoteSolver{conn: conn, fd: fds[0]}, nil
}

// Close releases the underlying gRPC connection.
func (s *RemoteSolver) Close() error { return s.conn.Close() }

func (s *RemoteSolver) messageType(name string) *desc.MessageDescriptor {
	md := s.fd.FindMessage("synth." + name)
	if md == nil {
		panic("solver: embedded schema missing message " + name)
	}
	return md
}

func (s *RemoteSolver) invoke(ctx context.Context, method string, req, resp *dynamic.Message) error {
	return s.conn.Invoke(ctx, "/synth.Solver/"+method, req, resp)
}

// Valid asks the remote backend whether phi holds under every assignment.
func (s *RemoteSolver) Valid(ctx context.Context, phi expr.Expr) (bool, error) {
	req := dynamic.NewMessage(s.messageType("ValidRequest"))
	req.SetFieldByName("formula", phi.String())
	resp := dynamic.NewMessage(s.messageType("ValidResponse"))
	if err := s.invoke(ctx, "Valid", req, resp); err != nil {
		return false, err
	}
	v, err := resp.TryGetFieldByName("valid")
	if err != nil {
		return false, err
	}
	return v.(bool), nil
}

// Satisfiable asks the remote backend whether some assignment makes phi
// true.
func (s *RemoteSolver) Satisfiable(ctx context.Context, phi expr.Expr) (bool, error) {
	req := dynamic.NewMessage(s.messageType("SatisfiableRequest"))
	req.SetFieldByName("formula", phi.String())
	resp := dynamic.NewMessage(s.messageType("SatisfiableResponse"))
	if err := s.invoke(ctx, "Satisfiable", req, resp); err != nil {
		return false, err
	}
	v, err := resp.TryGetFieldByName("satisfiable")
	if err != nil {
		return false, err
	}
	return v.(bool), nil
}

// Satisfy asks the remote backend for a model of phi restricted to vars.
func (s *RemoteSolver) Satisfy(ctx context.Context, phi expr.Expr, vars []*expr.Var) (Model, error) {
	req := dynamic.NewMessage(s.messageType("SatisfyRequest"))
	req.SetFieldByName("formula", phi.String())

	ids := make([]interface{}, len(vars))
	types := make([]interface{}, len(vars))
	for i, v := range vars {
		ids[i] = v.ID
		types[i] = v.T.String()
	}
	req.SetFieldByName("var_ids", ids)
	req.SetFieldByName("var_types", types)

	resp := dynamic.NewMessage(s.messageType("SatisfyResponse"))
	if err := s.invoke(ctx, "Satisfy", req, resp); err != nil {
		return nil, err
	}

	sat, err := resp.TryGetFieldByName("sat")
	if err != nil {
		return nil, err
	}
	if !sat.(bool) {
		return nil, nil
	}

	entries, err := resp.TryGetFieldByName("model")
	if err != nil {
		return nil, err
	}

	model := make(Model)
	for _, e := range entries.([]interface{}) {
		entryMsg := e.(*dynamic.Message)
		varID, _ := entryMsg.TryGetFieldByName("var_id")
		encoded, _ := entryMsg.TryGetFieldByName("encoded_value")
		val, err := decodeModelValue(encoded.(string))
		if err != nil {
			return nil, fmt.Errorf("solver: decoding model entry for %v: %w", varID, err)
		}
		model[varID.(string)] = val
	}
	return model, nil
}

// decodeModelValue parses the "Kind:literal" wire encoding a compliant
// backend uses for the scalar leaf types this module reasons about
// directly (Int/Bool/String/Enum); collection- and record-typed model
// entries are the remote backend's responsibility to decompose into
// these before replying.
func decodeModelValue(s string) (eval.Value, error) {
	kind, lit, ok := strings.Cut(s, ":")
	if !ok {
		return nil, fmt.Errorf("malformed encoded value %q", s)
	}
	switch kind {
	case "Int":
		n, err := strconv.ParseInt(lit, 10, 64)
		if err != nil {
			return nil, err
		}
		return eval.Int{Val: n}, nil
	case "Bool":
		return eval.Bool{Val: lit == "true"}, nil
	case "String":
		return eval.String{Val: lit}, nil
	case "Enum":
		return eval.Enum{Case: lit}, nil
	default:
		return nil, fmt.Errorf("unsupported encoded value kind %q", kind)
	}
}
