package backend

import (
	"context"
	"net/http"
	"net/url"
)

// AssignDriver binds the driver to the booking once the customer's OTP matched.
func (c *Client) AssignDriver(ctx context.Context, bookingID string, driverID int64) (map[string]any, error) {
	out := map[string]any{}
	in := map[string]int64{"driver_id": driverID}
	path := "/api/booking/driver/" + url.PathEscape(bookingID)
	if err := c.doJSON(ctx, "assign_driver", http.MethodPatch, path, in, &out, nil); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) UpdatePayment(ctx context.Context, bookingID, status, method string) (map[string]any, error) {
	out := map[string]any{}
	in := map[string]string{"payment_status": status, "payment_method": method}
	path := "/api/booking/payment/" + url.PathEscape(bookingID)
	if err := c.doJSON(ctx, "update_payment", http.MethodPatch, path, in, &out, nil); err != nil {
		return nil, err
	}
	return out, nil
}
