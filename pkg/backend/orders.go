package backend

import (
	"context"
	"fmt"
	"net/http"
)

func (c *Client) CompletedOrders(ctx context.Context, driverID int64) (int, error) {
	var out struct {
		Count int `json:"completedOrdersCount"`
	}
	path := fmt.Sprintf("/api/orders/completed/%d", driverID)
	if err := c.doJSON(ctx, "completed_orders", http.MethodGet, path, nil, &out, nil); err != nil {
		return 0, err
	}
	return out.Count, nil
}

func (c *Client) MissedOrders(ctx context.Context, driverID int64) (int, error) {
	var out struct {
		Count int `json:"MissedOrdersCount"`
	}
	path := fmt.Sprintf("/api/orders/missed/%d", driverID)
	if err := c.doJSON(ctx, "missed_orders", http.MethodGet, path, nil, &out, nil); err != nil {
		return 0, err
	}
	return out.Count, nil
}
