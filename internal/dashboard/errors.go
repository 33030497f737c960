package dashboard

import (
	"errors"
	"fmt"
)

// ErrDataUnavailable means the catalog could not be fetched or decoded. Only a reload recovers.
var ErrDataUnavailable = errors.New("props data unavailable")

// ErrCatalogFetch marks an ErrDataUnavailable caused by the transport rather than the payload.
var ErrCatalogFetch = errors.New("catalog fetch failed")

// ErrUnknownCard is returned for panel operations on an id that is not in the catalog.
var ErrUnknownCard = errors.New("unknown card")

type ErrorKind string

const (
	KindRequest ErrorKind = "request"
	KindDomain  ErrorKind = "domain"
	KindNoData  ErrorKind = "no_data"
	KindDecode  ErrorKind = "decode"
)

// PanelError is the error content of one visualization panel. It never leaves its panel.
type PanelError struct {
	Kind   ErrorKind `json:"kind"`
	Title  string    `json:"title"`
	Detail string    `json:"detail"`
}

func (e *PanelError) Error() string {
	return fmt.Sprintf("%s: %s", e.Title, e.Detail)
}

func noDataError(homeTeam string) *PanelError {
	return &PanelError{
		Kind:   KindNoData,
		Title:  "No H2H Data",
		Detail: "No head-to-head games found against " + homeTeam,
	}
}

func requestError(detail string) *PanelError {
	return &PanelError{Kind: KindRequest, Title: "Error loading visualization", Detail: detail}
}

func domainError(msg string) *PanelError {
	return &PanelError{Kind: KindDomain, Title: "Error", Detail: msg}
}

func decodeError(detail string) *PanelError {
	return &PanelError{Kind: KindDecode, Title: "Error", Detail: detail}
}
