package leads

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/elastic/go-elasticsearch/v8"

	"crm-assistant/internal/common/errors"
	"crm-assistant/internal/models"
)

// SearchRepository wraps a primary repository and widens FindByName
// with fuzzy full-text search. Misheard voice names ("Jenifer") still
// resolve; every other call delegates to the primary.
type SearchRepository struct {
	primary models.LeadRepository
	es      *elasticsearch.Client
	index   string
}

func NewSearchRepository(primary models.LeadRepository, es *elasticsearch.Client, index string) *SearchRepository {
	return &SearchRepository{primary: primary, es: es, index: index}
}

func (r *SearchRepository) GetByID(ctx context.Context, tenantID, id string) (*models.Lead, error) {
	return r.primary.GetByID(ctx, tenantID, id)
}

func (r *SearchRepository) FindByName(ctx context.Context, tenantID, name string) (*models.Lead, error) {
	lead, err := r.primary.FindByName(ctx, tenantID, name)
	if err != nil || lead != nil {
		return lead, err
	}
	return r.searchByName(ctx, tenantID, name)
}

func (r *SearchRepository) searchByName(ctx context.Context, tenantID, name string) (*models.Lead, error) {
	query := map[string]interface{}{
		"size": 1,
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"filter": []map[string]interface{}{
					{"term": map[string]interface{}{"tenant_id": tenantID}},
				},
				"must": []map[string]interface{}{
					{
						"multi_match": map[string]interface{}{
							"query":     name,
							"fields":    []string{"first_name^2", "last_name", "full_name"},
							"fuzziness": "AUTO",
						},
					},
				},
			},
		},
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(query); err != nil {
		return nil, errors.NewLeadLookupFailedError(err)
	}

	res, err := r.es.Search(
		r.es.Search.WithContext(ctx),
		r.es.Search.WithIndex(r.index),
		r.es.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, errors.NewLeadLookupFailedError(err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, errors.NewLeadLookupFailedError(fmt.Errorf("lead search failed: %s", res.String()))
	}

	var body struct {
		Hits struct {
			Hits []struct {
				Source models.Lead `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return nil, errors.NewLeadLookupFailedError(err)
	}

	if len(body.Hits.Hits) == 0 {
		return nil, nil
	}
	lead := body.Hits.Hits[0].Source
	return &lead, nil
}
