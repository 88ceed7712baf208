package backend

import (
	"context"
	"net/http"

	"driverbot/pkg/models"
)

func (c *Client) SendLoginOTP(ctx context.Context, phone string) error {
	in := map[string]string{"phone": phone}
	return c.doJSON(ctx, "send_login_otp", http.MethodPost, "/api/driver/login/send-otp", in, nil, nil)
}

func (c *Client) VerifyLoginOTP(ctx context.Context, phone, otp string) (*models.LoginResult, error) {
	var out models.LoginResult
	in := map[string]string{"phone": phone, "otp": otp}
	if err := c.doJSON(ctx, "verify_login_otp", http.MethodPost, "/api/driver/login/verify-otp", in, &out, nil); err != nil {
		return nil, err
	}
	return &out, nil
}

type registerRequest struct {
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Gender        string `json:"gender"`
	DOB           string `json:"dob"`
	Password      string `json:"password"`
	VehicleType   string `json:"vehicle_type"`
	VehicleNumber string `json:"vehicle_number"`
}

// RegisterDriver submits the registration form. The backend answers with either
// the bare record or the record wrapped in data.
func (c *Client) RegisterDriver(ctx context.Context, p models.DriverProfile) (*models.Registration, error) {
	in := registerRequest{
		FirstName:     p.FirstName,
		LastName:      p.LastName,
		Email:         p.Email,
		Phone:         p.Phone,
		Gender:        p.Gender,
		DOB:           p.DOB.Format("2006-01-02"),
		Password:      p.Password,
		VehicleType:   p.VehicleType,
		VehicleNumber: p.VehicleNumber,
	}

	var out struct {
		models.Registration
		Data *models.Registration `json:"data"`
	}
	if err := c.doJSON(ctx, "register_driver", http.MethodPost, "/api/driver", in, &out, nil); err != nil {
		return nil, err
	}
	if out.Data != nil {
		return out.Data, nil
	}
	return &out.Registration, nil
}
