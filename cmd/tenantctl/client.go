package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ldp-wms/tenant-core/internal/tenant"
	"github.com/spf13/cobra"
)

type client struct {
	baseURL string
	http    *http.Client
}

func newClient(baseURL string) *client {
	return &client{baseURL: baseURL, http: &http.Client{Timeout: 10 * time.Second}}
}

type createTenantInput struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	ContactEmail string            `json:"contactEmail"`
	Config       map[string]string `json:"config"`
}

func (c *client) createTenant(ctx context.Context, in createTenantInput) (tenant.Record, error) {
	body, err := json.Marshal(in)
	if err != nil {
		return tenant.Record{}, err
	}
	return c.do(ctx, http.MethodPost, "/tenants", bytes.NewReader(body))
}

func (c *client) getTenant(ctx context.Context, id string) (tenant.Record, error) {
	return c.do(ctx, http.MethodGet, "/tenants/"+id, nil)
}

type updateTenantInput struct {
	Name         string            `json:"name"`
	ContactEmail string            `json:"contactEmail"`
	Config       map[string]string `json:"config"`
}

func (c *client) updateTenant(ctx context.Context, id string, in updateTenantInput) (tenant.Record, error) {
	body, err := json.Marshal(in)
	if err != nil {
		return tenant.Record{}, err
	}
	return c.do(ctx, http.MethodPut, "/tenants/"+id, bytes.NewReader(body))
}

func (c *client) deleteTenant(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/tenants/"+id, nil)
	return err
}

func (c *client) transition(ctx context.Context, id, action string) (tenant.Record, error) {
	return c.do(ctx, http.MethodPost, "/tenants/"+id+"/"+action, nil)
}

func (c *client) do(ctx context.Context, method, path string, body io.Reader) (tenant.Record, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return tenant.Record{}, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return tenant.Record{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var errBody struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&errBody)
		return tenant.Record{}, fmt.Errorf("orchestrator: %s (status %d)", errBody.Error, resp.StatusCode)
	}

	if resp.StatusCode == http.StatusNoContent {
		return tenant.Record{}, nil
	}

	var rec tenant.Record
	if err := json.NewDecoder(resp.Body).Decode(&rec); err != nil {
		return tenant.Record{}, fmt.Errorf("decode response: %w", err)
	}
	return rec, nil
}

func printTenant(cmd *cobra.Command, rec tenant.Record) {
	cmd.Printf("id=%s name=%q status=%s realm=%s\n", rec.ID, rec.Name, rec.Status, rec.Realm())
}
