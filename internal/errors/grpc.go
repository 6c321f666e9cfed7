package errors

import (
	"fmt"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ErrorDomain tags the ErrorInfo detail attached to gRPC errors
const ErrorDomain = "hall-runner"

var grpcCodes = map[Code]codes.Code{
	CodeOK:                 codes.OK,
	CodeCanceled:           codes.Canceled,
	CodeInvalidArgument:    codes.InvalidArgument,
	CodeDeadlineExceeded:   codes.DeadlineExceeded,
	CodeNotFound:           codes.NotFound,
	CodeAlreadyExists:      codes.AlreadyExists,
	CodePermissionDenied:   codes.PermissionDenied,
	CodeResourceExhausted:  codes.ResourceExhausted,
	CodeFailedPrecondition: codes.FailedPrecondition,
	CodeAborted:            codes.Aborted,
	CodeOutOfRange:         codes.OutOfRange,
	CodeUnimplemented:      codes.Unimplemented,
	CodeInternal:           codes.Internal,
	CodeUnavailable:        codes.Unavailable,
	CodeDataLoss:           codes.DataLoss,
	CodeUnauthenticated:    codes.Unauthenticated,
}

var fromGRPCCodes = func() map[codes.Code]Code {
	out := make(map[codes.Code]Code, len(grpcCodes))
	for c, g := range grpcCodes {
		out[g] = c
	}
	return out
}()

// GRPCCode returns the corresponding gRPC code
func (c Code) GRPCCode() codes.Code {
	if g, ok := grpcCodes[c]; ok {
		return g
	}
	return codes.Unknown
}

// ToGRPCError converts an error to a gRPC status error. Meta travels as an
// ErrorInfo detail with values rendered as strings.
func ToGRPCError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	var customErr *Error
	if !As(err, &customErr) {
		return status.Error(codes.Internal, err.Error())
	}

	st := status.New(customErr.Code.GRPCCode(), customErr.Message)
	if len(customErr.Meta) > 0 {
		if withInfo, detailErr := st.WithDetails(&errdetails.ErrorInfo{
			Reason:   string(customErr.Code),
			Domain:   ErrorDomain,
			Metadata: stringMeta(customErr.Meta),
		}); detailErr == nil {
			st = withInfo
		}
	}
	return st.Err()
}

// FromGRPCError converts a gRPC error back to a coded error
func FromGRPCError(err error) error {
	if err == nil {
		return nil
	}

	st, ok := status.FromError(err)
	if !ok {
		return err
	}

	code, ok := fromGRPCCodes[st.Code()]
	if !ok {
		code = CodeInternal
	}
	out := &Error{Code: code, Message: st.Message()}

	for _, detail := range st.Details() {
		info, ok := detail.(*errdetails.ErrorInfo)
		if !ok || info.GetDomain() != ErrorDomain {
			continue
		}
		for k, v := range info.GetMetadata() {
			out.WithMeta(k, v)
		}
		break
	}
	return out
}

// GRPCStatus returns the gRPC status for any error
func GRPCStatus(err error) *status.Status {
	if err == nil {
		return status.New(codes.OK, "")
	}
	st, _ := status.FromError(ToGRPCError(err))
	return st
}

func stringMeta(meta map[string]interface{}) map[string]string {
	out := make(map[string]string, len(meta))
	for k, v := range meta {
		out[k] = fmt.Sprint(v)
	}
	return out
}
