package api

import (
	"context"
	"fmt"
)

type AddressesAPI struct {
	client Doer
}

func NewAddressesAPI(client Doer) *AddressesAPI {
	return &AddressesAPI{client: client}
}

type Address struct {
	AddressID     int64  `json:"address_id"`
	ReceiverName  string `json:"receiver_name"`
	ReceiverPhone string `json:"receiver_phone"`
	Province      string `json:"province"`
	City          string `json:"city"`
	District      string `json:"district"`
	DetailAddress string `json:"detail_address"`
	PostalCode    string `json:"postal_code"`
	IsDefault     bool   `json:"is_default"`
}

type AddressInput struct {
	ReceiverName  string `json:"receiver_name" validate:"required"`
	ReceiverPhone string `json:"receiver_phone" validate:"required"`
	Province      string `json:"province" validate:"required"`
	City          string `json:"city" validate:"required"`
	District      string `json:"district"`
	DetailAddress string `json:"detail_address" validate:"required"`
	PostalCode    string `json:"postal_code"`
	IsDefault     bool   `json:"is_default"`
}

func (a *AddressesAPI) List(ctx context.Context) ([]Address, error) {
	var addresses []Address
	if err := a.client.Get(ctx, "/user/addresses", nil, &addresses); err != nil {
		return nil, err
	}
	return addresses, nil
}

func (a *AddressesAPI) Add(ctx context.Context, input AddressInput) (*Address, error) {
	if err := checkInput(input); err != nil {
		return nil, err
	}
	var address Address
	if err := a.client.Post(ctx, "/user/addresses", input, &address); err != nil {
		return nil, err
	}
	return &address, nil
}

func (a *AddressesAPI) Update(ctx context.Context, addressID int64, input AddressInput) error {
	if err := checkInput(input); err != nil {
		return err
	}
	return a.client.Put(ctx, fmt.Sprintf("/user/addresses/%d", addressID), input, nil)
}

func (a *AddressesAPI) Delete(ctx context.Context, addressID int64) error {
	return a.client.Delete(ctx, fmt.Sprintf("/user/addresses/%d", addressID), nil, nil)
}

func (a *AddressesAPI) SetDefault(ctx context.Context, addressID int64) error {
	return a.client.Put(ctx, fmt.Sprintf("/user/addresses/%d/default", addressID), nil, nil)
}
