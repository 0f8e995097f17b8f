package api

import (
	"context"
	"errors"
	"math"

	"github.com/ikoiii/booking-futsal/internal/database"
	"github.com/ikoiii/booking-futsal/internal/domain"
	"github.com/ikoiii/booking-futsal/internal/models"
	"github.com/ikoiii/booking-futsal/internal/service"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const availabilityServiceName = "futsal.availability.v1.AvailabilityService"

// AvailabilityServer is the server API of the availability service.
// Requests and responses are google.protobuf.Struct documents.
type AvailabilityServer interface {
	CheckAvailability(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ListAvailable(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ListLapangans(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

type availabilityMethod func(AvailabilityServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func availabilityHandler(name string, call availabilityMethod) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			server := srv.(AvailabilityServer)
			if interceptor == nil {
				return call(server, ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + availabilityServiceName + "/" + name}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(server, ctx, req.(*structpb.Struct))
			})
		},
	}
}

var availabilityServiceDesc = grpc.ServiceDesc{
	ServiceName: availabilityServiceName,
	HandlerType: (*AvailabilityServer)(nil),
	Methods: []grpc.MethodDesc{
		availabilityHandler("CheckAvailability", AvailabilityServer.CheckAvailability),
		availabilityHandler("ListAvailable", AvailabilityServer.ListAvailable),
		availabilityHandler("ListLapangans", AvailabilityServer.ListLapangans),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "futsal/availability/v1/availability.proto",
}

// RegisterAvailabilityServer registers srv on s.
func RegisterAvailabilityServer(s grpc.ServiceRegistrar, srv AvailabilityServer) {
	s.RegisterService(&availabilityServiceDesc, srv)
}

// AvailabilityClient calls the availability service.
type AvailabilityClient struct {
	cc grpc.ClientConnInterface
}

func NewAvailabilityClient(cc grpc.ClientConnInterface) *AvailabilityClient {
	return &AvailabilityClient{cc: cc}
}

func (c *AvailabilityClient) call(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+availabilityServiceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *AvailabilityClient) CheckAvailability(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.call(ctx, "CheckAvailability", in, opts...)
}

func (c *AvailabilityClient) ListAvailable(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.call(ctx, "ListAvailable", in, opts...)
}

func (c *AvailabilityClient) ListLapangans(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.call(ctx, "ListLapangans", in, opts...)
}

// AvailabilityService answers slot questions for partner systems.
type AvailabilityService struct {
	bookings  *service.BookingService
	lapangans *service.LapanganService
}

func NewAvailabilityService(bookings *service.BookingService, lapangans *service.LapanganService) *AvailabilityService {
	return &AvailabilityService{bookings: bookings, lapangans: lapangans}
}

// CheckAvailability expects lapangan_id, tanggal, jam_mulai and jam_selesai.
func (s *AvailabilityService) CheckAvailability(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	lapanganID, err := intField(req, "lapangan_id")
	if err != nil {
		return nil, err
	}
	slot, err := slotFields(req)
	if err != nil {
		return nil, err
	}
	slot.LapanganID = int64(lapanganID)

	if _, err := s.lapangans.GetLapangan(ctx, slot.LapanganID); err != nil {
		return nil, grpcError(err)
	}
	conflicts, err := s.bookings.ConflictCount(ctx, slot)
	if err != nil {
		return nil, grpcError(err)
	}

	return structpb.NewStruct(map[string]any{
		"lapangan_id":    float64(slot.LapanganID),
		"tanggal":        slot.Tanggal,
		"jam_mulai":      float64(slot.JamMulai),
		"jam_selesai":    float64(slot.JamSelesai),
		"available":      conflicts == 0,
		"conflict_count": float64(conflicts),
	})
}

// ListAvailable expects tanggal, jam_mulai and jam_selesai.
func (s *AvailabilityService) ListAvailable(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	slot, err := slotFields(req)
	if err != nil {
		return nil, err
	}
	lapangans, err := s.bookings.ListAvailable(ctx, slot.Tanggal, slot.JamMulai, slot.JamSelesai)
	if err != nil {
		return nil, grpcError(err)
	}
	return lapanganList(lapangans)
}

func (s *AvailabilityService) ListLapangans(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	lapangans, err := s.lapangans.ListLapangans(ctx)
	if err != nil {
		return nil, grpcError(err)
	}
	return lapanganList(lapangans)
}

func slotFields(req *structpb.Struct) (models.Slot, error) {
	tanggal := req.GetFields()["tanggal"].GetStringValue()
	if tanggal == "" {
		return models.Slot{}, status.Error(codes.InvalidArgument, "tanggal is required")
	}
	jamMulai, err := intField(req, "jam_mulai")
	if err != nil {
		return models.Slot{}, err
	}
	jamSelesai, err := intField(req, "jam_selesai")
	if err != nil {
		return models.Slot{}, err
	}
	return models.Slot{Tanggal: tanggal, JamMulai: jamMulai, JamSelesai: jamSelesai}, nil
}

func intField(req *structpb.Struct, name string) (int, error) {
	v, ok := req.GetFields()[name]
	if !ok {
		return 0, status.Errorf(codes.InvalidArgument, "%s is required", name)
	}
	n, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok || n.NumberValue != math.Trunc(n.NumberValue) {
		return 0, status.Errorf(codes.InvalidArgument, "%s must be an integer", name)
	}
	if math.Abs(n.NumberValue) > math.MaxInt32 {
		return 0, status.Errorf(codes.InvalidArgument, "%s is out of range", name)
	}
	return int(n.NumberValue), nil
}

func lapanganList(lapangans []*models.Lapangan) (*structpb.Struct, error) {
	items := make([]any, 0, len(lapangans))
	for _, l := range lapangans {
		fasilitas := make([]any, 0, len(l.Fasilitas))
		for _, f := range l.Fasilitas {
			fasilitas = append(fasilitas, f)
		}
		items = append(items, map[string]any{
			"id":            float64(l.ID),
			"nama":          l.Nama,
			"lokasi":        l.Lokasi,
			"harga_per_jam": float64(l.HargaPerJam),
			"fasilitas":     fasilitas,
			"status":        string(l.Status),
		})
	}
	return structpb.NewStruct(map[string]any{"lapangans": items})
}

func grpcError(err error) error {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		return status.Error(codes.InvalidArgument, verr.Message)
	case errors.Is(err, database.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	default:
		return status.Error(codes.Internal, "internal error")
	}
}
