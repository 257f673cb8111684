// internal/storage/search.go
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"advisor-matching/internal/matching"

	"github.com/elastic/go-elasticsearch/v8"
)

// MatchIndexer mirrors match results into an Elasticsearch index for the assignment UI's
// search. Document IDs are founderId:advisorId, so reindexing a pair overwrites it.
type MatchIndexer struct {
	client *elasticsearch.Client
	index  string
}

func NewMatchIndexer(client *elasticsearch.Client, index string) *MatchIndexer {
	return &MatchIndexer{client: client, index: index}
}

type bulkAction struct {
	Index struct {
		ID string `json:"_id"`
	} `json:"index"`
}

type bulkResponse struct {
	Errors bool `json:"errors"`
	Items  []map[string]struct {
		Status int `json:"status"`
		Error  *struct {
			Type   string `json:"type"`
			Reason string `json:"reason"`
		} `json:"error,omitempty"`
	} `json:"items"`
}

func documentID(r matching.MatchResult) string {
	return r.FounderID + ":" + r.AdvisorID
}

func (m *MatchIndexer) IndexResults(ctx context.Context, results []matching.MatchResult) error {
	if len(results) == 0 {
		return nil
	}

	var body bytes.Buffer
	enc := json.NewEncoder(&body)
	for _, r := range results {
		var action bulkAction
		action.Index.ID = documentID(r)
		if err := enc.Encode(action); err != nil {
			return fmt.Errorf("failed to encode bulk action: %w", err)
		}
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("failed to encode match document: %w", err)
		}
	}

	res, err := m.client.Bulk(
		bytes.NewReader(body.Bytes()),
		m.client.Bulk.WithContext(ctx),
		m.client.Bulk.WithIndex(m.index),
	)
	if err != nil {
		return fmt.Errorf("bulk index request failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("bulk index error: %s", res.Status())
	}

	var parsed bulkResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return fmt.Errorf("failed to decode bulk response: %w", err)
	}
	if !parsed.Errors {
		return nil
	}

	failed := 0
	var first string
	for _, item := range parsed.Items {
		for _, op := range item {
			if op.Error != nil {
				failed++
				if first == "" {
					first = op.Error.Type + ": " + op.Error.Reason
				}
			}
		}
	}
	return fmt.Errorf("%d of %d documents failed to index (%s)", failed, len(results), first)
}
