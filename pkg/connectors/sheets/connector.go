// Package sheets implements the capability contract for Google Sheets.
package sheets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/datalinkhq/connector-engine/pkg/apperrors"
	"github.com/datalinkhq/connector-engine/pkg/connectors"
)

const readonlyScope = "https://www.googleapis.com/auth/spreadsheets.readonly"

// authProbeID is a deliberately bogus spreadsheet ID used by TestConnection
// when no spreadsheet_id is configured: a 404 proves the credentials
// authenticated, while 401/403 means they did not.
const authProbeID = "invalid-id-auth-probe"

// requiredCredentialFields are the service-account JSON keys a usable
// credential document must carry.
var requiredCredentialFields = []string{
	"type", "project_id", "private_key_id", "private_key",
	"client_email", "client_id", "auth_uri", "token_uri",
}

// Connector connects to Google Sheets with service-account credentials.
type Connector struct{}

// New creates the Google Sheets connector.
func New() *Connector {
	return &Connector{}
}

// Info returns the connector identity.
func (c *Connector) Info() connectors.Info {
	return connectors.Info{
		Type:        "google_sheets",
		DisplayName: "Google Sheets",
		Description: "Connect to Google Sheets spreadsheets",
	}
}

// ValidateParams requires a credentials object with the full set of
// service-account fields. spreadsheet_id is optional but must be non-empty
// when present. Returns a normalized copy.
func (c *Connector) ValidateParams(params map[string]any) (map[string]any, error) {
	rawCreds, present := params["credentials"]
	if !present {
		return nil, apperrors.MissingParam("credentials")
	}
	creds, ok := rawCreds.(map[string]any)
	if !ok {
		return nil, apperrors.NewValidationError("credentials",
			"must be a service account JSON object")
	}
	for _, field := range requiredCredentialFields {
		value, ok := creds[field].(string)
		if !ok || value == "" {
			return nil, apperrors.NewValidationError("credentials",
				fmt.Sprintf("missing required credential field %q", field))
		}
	}

	if raw, present := params["spreadsheet_id"]; present {
		id, ok := raw.(string)
		if !ok || id == "" {
			return nil, apperrors.NewValidationError("spreadsheet_id",
				"cannot be empty if provided")
		}
	}

	normalized := make(map[string]any, len(params))
	for k, v := range params {
		normalized[k] = v
	}
	return normalized, nil
}

// service validates params and builds an authenticated read-only Sheets
// client. The client holds no connection state, so there is nothing to
// release.
func (c *Connector) service(ctx context.Context, params map[string]any) (*sheetsapi.Service, map[string]any, error) {
	validated, err := c.ValidateParams(params)
	if err != nil {
		return nil, nil, err
	}

	credJSON, err := json.Marshal(validated["credentials"])
	if err != nil {
		return nil, nil, apperrors.NewValidationError("credentials", "not serializable as JSON")
	}

	svc, err := sheetsapi.NewService(ctx,
		option.WithCredentialsJSON(credJSON),
		option.WithScopes(readonlyScope))
	if err != nil {
		return nil, nil, apperrors.NewConnectionError("Google Sheets", err)
	}
	return svc, validated, nil
}

// TestConnection fetches the configured spreadsheet, or probes with a bogus
// ID when none is configured. A 404 on the probe counts as success: it
// proves the credentials passed authentication.
func (c *Connector) TestConnection(ctx context.Context, params map[string]any) error {
	svc, validated, err := c.service(ctx, params)
	if err != nil {
		return err
	}

	spreadsheetID, _ := validated["spreadsheet_id"].(string)
	probing := spreadsheetID == ""
	if probing {
		spreadsheetID = authProbeID
	}

	_, err = svc.Spreadsheets.Get(spreadsheetID).Context(ctx).Do()
	if err != nil {
		var apiErr *googleapi.Error
		if probing && errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound {
			return nil
		}
		return apperrors.NewConnectionError("Google Sheets", err)
	}
	return nil
}

// GetMetadata returns spreadsheet title, locale, time zone and the list of
// sheets. Requires spreadsheet_id.
func (c *Connector) GetMetadata(ctx context.Context, params map[string]any) (connectors.Metadata, error) {
	svc, validated, err := c.service(ctx, params)
	if err != nil {
		return nil, err
	}

	spreadsheetID, _ := validated["spreadsheet_id"].(string)
	if spreadsheetID == "" {
		return nil, apperrors.MissingParam("spreadsheet_id")
	}

	spreadsheet, err := svc.Spreadsheets.Get(spreadsheetID).Context(ctx).Do()
	if err != nil {
		return nil, apperrors.NewConnectionError("Google Sheets", err)
	}

	sheetList := make([]map[string]any, 0, len(spreadsheet.Sheets))
	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties == nil {
			continue
		}
		sheetList = append(sheetList, map[string]any{
			"title":   sheet.Properties.Title,
			"sheetId": sheet.Properties.SheetId,
			"index":   sheet.Properties.Index,
		})
	}

	meta := connectors.Metadata{
		"type":   "google_sheets",
		"id":     spreadsheetID,
		"sheets": sheetList,
	}
	if spreadsheet.Properties != nil {
		meta["title"] = spreadsheet.Properties.Title
		meta["locale"] = spreadsheet.Properties.Locale
		meta["time_zone"] = spreadsheet.Properties.TimeZone
	}
	return meta, nil
}

// GetSchema reads the header row of one sheet and infers column types from
// the first few data rows. When opts.SheetName is absent or not found, the
// first sheet is used; an empty spreadsheet is an error.
func (c *Connector) GetSchema(ctx context.Context, params map[string]any, opts connectors.SchemaOptions) ([]connectors.TableSchema, error) {
	svc, validated, err := c.service(ctx, params)
	if err != nil {
		return nil, err
	}

	spreadsheetID, _ := validated["spreadsheet_id"].(string)
	if spreadsheetID == "" {
		return nil, apperrors.MissingParam("spreadsheet_id")
	}

	spreadsheet, err := svc.Spreadsheets.Get(spreadsheetID).Context(ctx).Do()
	if err != nil {
		return nil, apperrors.NewConnectionError("Google Sheets", err)
	}
	sheetName, err := resolveSheetName(spreadsheet, opts.SheetName)
	if err != nil {
		return nil, err
	}

	// First five data rows are enough to distinguish number/boolean from
	// string-typed columns.
	sample, err := svc.Spreadsheets.Values.
		Get(spreadsheetID, fmt.Sprintf("%s!1:6", sheetName)).
		ValueRenderOption("UNFORMATTED_VALUE").
		Context(ctx).Do()
	if err != nil {
		return nil, apperrors.NewConnectionError("Google Sheets", err)
	}
	columns := inferColumns(sample.Values)

	full, err := svc.Spreadsheets.Values.
		Get(spreadsheetID, sheetName).
		ValueRenderOption("UNFORMATTED_VALUE").
		Context(ctx).Do()
	if err != nil {
		return nil, apperrors.NewConnectionError("Google Sheets", err)
	}
	rowCount := int64(len(full.Values))
	if rowCount > 0 {
		rowCount-- // exclude the header row
	}

	return []connectors.TableSchema{{
		Sheet:    sheetName,
		Columns:  columns,
		RowCount: &rowCount,
	}}, nil
}

// resolveSheetName picks the requested sheet, falling back to the first
// sheet when the name is absent or unknown.
func resolveSheetName(spreadsheet *sheetsapi.Spreadsheet, requested string) (string, error) {
	if requested != "" {
		for _, sheet := range spreadsheet.Sheets {
			if sheet.Properties != nil && sheet.Properties.Title == requested {
				return requested, nil
			}
		}
	}
	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties != nil {
			return sheet.Properties.Title, nil
		}
	}
	return "", apperrors.NewValidationError("sheet_name", "spreadsheet has no sheets")
}

// Ensure Connector satisfies the capability contract at compile time.
var _ connectors.Connector = (*Connector)(nil)
