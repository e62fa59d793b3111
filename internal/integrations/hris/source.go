package hris

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"siap/pkg/roles"
)

// Source yields the full directory snapshot.
type Source interface {
	Fetch(ctx context.Context) ([]Employee, error)
}

// Client pulls the directory from the HR system's REST endpoint.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewClient(baseURL, token string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    httpClient,
	}
}

func (c *Client) Fetch(ctx context.Context) ([]Employee, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/employees", nil)
	if err != nil {
		return nil, err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("hris request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("hris returned %s", resp.Status)
	}

	var feed FeedResponse
	if err := json.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("unable to decode hris feed: %w", err)
	}
	return feed.Employees, nil
}

// FileSource reads an exported directory snapshot, JSON or CSV by extension.
type FileSource struct {
	Path string
}

func (f FileSource) Fetch(ctx context.Context) ([]Employee, error) {
	file, err := os.Open(f.Path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	if strings.EqualFold(filepath.Ext(f.Path), ".csv") {
		return ParseCSV(file)
	}

	var feed FeedResponse
	if err := json.NewDecoder(file).Decode(&feed); err != nil {
		return nil, fmt.Errorf("unable to decode %s: %w", f.Path, err)
	}
	return feed.Employees, nil
}

// ParseCSV expects a header row with external_id, username, fullname, email, role, active.
func ParseCSV(r io.Reader) ([]Employee, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("unable to read csv header: %w", err)
	}
	columns := map[string]int{}
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"external_id", "username"} {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("csv is missing column %q", required)
		}
	}

	field := func(record []string, name string) string {
		i, ok := columns[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	var employees []Employee
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		active := true
		if raw := field(record, "active"); raw != "" {
			if active, err = strconv.ParseBool(raw); err != nil {
				return nil, fmt.Errorf("line %d: invalid active flag %q", line, raw)
			}
		}

		employee := Employee{
			ExternalID: field(record, "external_id"),
			Username:   field(record, "username"),
			Fullname:   field(record, "fullname"),
			Role:       roles.Role(strings.ToLower(field(record, "role"))),
			Active:     active,
		}
		if email := field(record, "email"); email != "" {
			employee.Email = &email
		}
		employees = append(employees, employee)
	}
	return employees, nil
}
