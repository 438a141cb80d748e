package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"github.com/go-playground/validator"
	"github.com/hive-corporation/fusion/internal/core/domain"
	"github.com/hive-corporation/fusion/internal/core/service"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

type GrpcServer struct {
	sessions *service.SessionService
	importer *service.Importer
	validate *validator.Validate
}

func NewGrpcServer(sessions *service.SessionService, importer *service.Importer) *GrpcServer {
	return &GrpcServer{
		sessions: sessions,
		importer: importer,
		validate: validator.New(),
	}
}

type sessionRef struct {
	SessionID string `json:"sessionId" validate:"required"`
}

type addDataPointMessage struct {
	sessionRef
	DataPoint dataPointRequest `json:"dataPoint"`
}

type importMessage struct {
	sessionRef
	importRequest
}

type bulkMessage struct {
	sessionRef
	bulkRequest
}

func (s *GrpcServer) CreateSession(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var body createSessionRequest
	if err := s.decode(req, &body); err != nil {
		return nil, err
	}

	session, err := s.sessions.CreateSession(ctx, body.input())
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(map[string]interface{}{
		"sessionId": session.ID,
		"version":   session.Version,
	})
}

func (s *GrpcServer) GetAnalytics(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var body sessionRef
	if err := s.decode(req, &body); err != nil {
		return nil, err
	}

	session, err := s.sessions.GetSession(ctx, body.SessionID)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(map[string]interface{}{
		"sessionId": session.ID,
		"version":   session.Version,
		"analytics": session.Analytics,
	})
}

func (s *GrpcServer) AddDataPoint(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var body addDataPointMessage
	if err := s.decode(req, &body); err != nil {
		return nil, err
	}

	dp, session, err := s.sessions.AddDataPoint(ctx, body.SessionID, body.DataPoint.draft(), domain.Defaults{})
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(map[string]interface{}{
		"dataPoint": dp,
		"version":   session.Version,
		"analytics": session.Analytics,
	})
}

func (s *GrpcServer) Import(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var body importMessage
	if err := s.decode(req, &body); err != nil {
		return nil, err
	}
	items, err := body.items()
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	result, err := s.importer.Import(ctx, body.SessionID, items)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(result)
}

func (s *GrpcServer) ImportBulk(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var body bulkMessage
	if err := s.decode(req, &body); err != nil {
		return nil, err
	}

	result, err := s.importer.ImportBulk(ctx, body.SessionID, body.request())
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(result)
}

// decode maps a Struct onto a request body through its JSON form and validates it.
func (s *GrpcServer) decode(req *structpb.Struct, dst interface{}) error {
	raw, err := json.Marshal(req.AsMap())
	if err != nil {
		return status.Error(codes.InvalidArgument, "invalid request")
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return status.Errorf(codes.InvalidArgument, "invalid request: %v", err)
	}
	if err := s.validate.Struct(dst); err != nil {
		return status.Error(codes.InvalidArgument, validationMessage(err))
	}
	return nil
}

func toStruct(v interface{}) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return out, nil
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound), errors.Is(err, domain.ErrDataPointNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, domain.ErrInvalidSessionID),
		errors.Is(err, domain.ErrInvalidSession),
		errors.Is(err, domain.ErrInvalidPatch),
		errors.Is(err, domain.ErrInvalidBulkKind):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, domain.ErrConcurrentMutation):
		return status.Error(codes.Aborted, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		log.Printf("❌ gRPC call failed: %v", err)
		return status.Error(codes.Internal, "internal error")
	}
}
