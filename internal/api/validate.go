package api

import (
    "encoding/json"
    "net/http"

    "github.com/go-playground/validator/v10"

    "routesync/internal/model"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type importRequest struct {
    From string `json:"from" validate:"omitempty,datetime=2006-01-02"`
    To   string `json:"to" validate:"omitempty,datetime=2006-01-02"`
    Date string `json:"date" validate:"omitempty,datetime=2006-01-02"`
}

type bidRequest struct {
    DriverID  string  `json:"driverId" validate:"required"`
    BidAmount float64 `json:"bidAmount" validate:"required,gt=0"`
    Message   string  `json:"message"`
}

type planningRequest struct {
    Date       string `json:"date" validate:"required,datetime=2006-01-02"`
    Balancing  bool   `json:"balancing"`
    BalanceBy  string `json:"balanceBy" validate:"omitempty,oneof=distance duration orders"`
    StartWith  string `json:"startWith"`
    Clustering bool   `json:"clustering"`
}

type subscriptionRequest struct {
    EventType string `json:"eventType" validate:"required"`
    URL       string `json:"url" validate:"required,url"`
    Secret    string `json:"secret"`
}

// decodeValid decodes the body into v and runs struct validation,
// reporting failures as *model.ValidationError.
func decodeValid(r *http.Request, v any) error {
    if err := json.NewDecoder(r.Body).Decode(v); err != nil {
        return model.Invalid("invalid JSON: %v", err)
    }
    if err := validate.Struct(v); err != nil {
        return model.Invalid("%v", err)
    }
    return nil
}
