package grpc

import (
	"context"

	"google.golang.org/grpc"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/viralforge/mesh/services/trust-compliance/M49-dispute-tribunal-service/internal/application"
)

type TribunalInternalServer struct {
	grpc_health_v1.UnimplementedHealthServer
	service *application.Service
}

func NewTribunalInternalServer(service *application.Service) *TribunalInternalServer {
	return &TribunalInternalServer{service: service}
}

func Register(server grpc.ServiceRegistrar, svc *TribunalInternalServer) {
	grpc_health_v1.RegisterHealthServer(server, svc)
}

func (s *TribunalInternalServer) Check(ctx context.Context, req *grpc_health_v1.HealthCheckRequest) (*grpc_health_v1.HealthCheckResponse, error) {
	_ = s.service
	_ = ctx
	_ = req
	return &grpc_health_v1.HealthCheckResponse{Status: grpc_health_v1.HealthCheckResponse_SERVING}, nil
}

func (s *TribunalInternalServer) Watch(req *grpc_health_v1.HealthCheckRequest, stream grpc_health_v1.Health_WatchServer) error {
	_ = req
	return stream.Send(&grpc_health_v1.HealthCheckResponse{Status: grpc_health_v1.HealthCheckResponse_SERVING})
}
