package remote

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/attendance"
)

type deviceGatewayImpl struct {
	client *Client
}

func NewDeviceGateway(client *Client) attendance.DeviceGateway {
	return &deviceGatewayImpl{client: client}
}

// ListRecentActivity implements attendance.DeviceGateway.
func (g *deviceGatewayImpl) ListRecentActivity(ctx context.Context, limit int) ([]attendance.Activity, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}

	var activity []attendance.Activity
	if err := g.client.do(ctx, http.MethodGet, "recent-activity", q, nil, &activity); err != nil {
		return nil, err
	}
	return activity, nil
}

// ListDevices implements attendance.DeviceGateway.
func (g *deviceGatewayImpl) ListDevices(ctx context.Context) ([]attendance.Device, error) {
	var devices []attendance.Device
	if err := g.client.do(ctx, http.MethodGet, "devices", nil, nil, &devices); err != nil {
		return nil, err
	}
	return devices, nil
}

// SyncDevices implements attendance.DeviceGateway.
func (g *deviceGatewayImpl) SyncDevices(ctx context.Context, req attendance.SyncDevicesRequest) (attendance.SyncDevicesResponse, error) {
	var resp attendance.SyncDevicesResponse
	err := g.client.do(ctx, http.MethodPost, "devices/sync-multiple", nil, req, &resp)
	if err != nil {
		if errors.Is(err, attendance.ErrNotFound) {
			return attendance.SyncDevicesResponse{}, attendance.ErrDeviceNotFound
		}
		return attendance.SyncDevicesResponse{}, err
	}
	return resp, nil
}
