package sms

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
)

// Gateway delivers one-time pin codes through the external SMS service.
type Gateway interface {
	SendPinCode(ctx context.Context, operationName, phoneNumber, pinCode string) error
}

type pinCodeRequest struct {
	AppName       string `json:"appName"`
	OperationName string `json:"operationName"`
	PhoneNumber   string `json:"phoneNumber"`
	PinCode       string `json:"pinCode"`
}

type httpGateway struct {
	client  *resty.Client
	appName string
}

func NewHTTPGateway(serverAddress, appName string) Gateway {
	return &httpGateway{
		client:  resty.New().SetBaseURL(serverAddress),
		appName: appName,
	}
}

func (g *httpGateway) SendPinCode(ctx context.Context, operationName, phoneNumber, pinCode string) error {
	resp, err := g.client.R().
		SetContext(ctx).
		SetBody(pinCodeRequest{
			AppName:       g.appName,
			OperationName: operationName,
			PhoneNumber:   phoneNumber,
			PinCode:       pinCode,
		}).
		Post("/sms/sendGatewayPinCode")
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("sms gateway returned %s: %s", resp.Status(), resp.String())
	}
	return nil
}
