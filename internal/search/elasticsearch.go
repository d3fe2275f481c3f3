package search

import (
	"bytes"
	"context"
	"encoding/json"

	"example.com/tbmnc/services/tracker/config"
	"example.com/tbmnc/services/tracker/internal/models"

	"github.com/elastic/go-elasticsearch/v7"
	"github.com/elastic/go-elasticsearch/v7/esapi"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const supplierIndex = "suppliers"

// ElasticClient provides integration with Elasticsearch
type ElasticClient struct {
	client  *elasticsearch.Client
	config  config.ElasticConfig
	enabled bool
}

// NewElasticClient creates a new Elasticsearch client
func NewElasticClient(cfg config.ElasticConfig) (*ElasticClient, error) {
	if !cfg.Enabled {
		return &ElasticClient{enabled: false}, nil
	}

	esConfig := elasticsearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.Username,
		Password:  cfg.Password,
	}

	client, err := elasticsearch.NewClient(esConfig)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create Elasticsearch client")
	}

	return &ElasticClient{
		client:  client,
		config:  cfg,
		enabled: true,
	}, nil
}

// Enabled reports whether search indexing is active
func (c *ElasticClient) Enabled() bool {
	return c != nil && c.enabled
}

// IndexSupplier indexes a supplier in Elasticsearch
func (c *ElasticClient) IndexSupplier(ctx context.Context, supplier *models.Supplier) error {
	if !c.Enabled() {
		return nil
	}

	doc := map[string]interface{}{
		"id":             supplier.ID,
		"company_name":   supplier.CompanyName,
		"legal_name":     supplier.LegalName,
		"status":         string(supplier.Status),
		"current_stage":  supplier.CurrentStage,
		"risk_level":     string(supplier.RiskLevel),
		"categories":     supplier.Categories,
		"tags":           supplier.Tags,
		"progress":       supplier.ProgressPercentage,
		"contact_email":  supplier.ContactEmail,
		"contact_person": supplier.ContactPerson,
		"company_size":   string(supplier.CompanySize),
		"updated_at":     supplier.UpdatedAt,
	}

	docJSON, err := json.Marshal(doc)
	if err != nil {
		return errors.Wrap(err, "failed to marshal supplier document")
	}

	indexName := config.FormatIndex(c.config, supplierIndex)
	req := esapi.IndexRequest{
		Index:      indexName,
		DocumentID: supplier.ID,
		Body:       bytes.NewReader(docJSON),
		Refresh:    "true",
	}

	res, err := req.Do(ctx, c.client)
	if err != nil {
		return errors.Wrap(err, "failed to execute Elasticsearch index request")
	}
	defer res.Body.Close()

	if res.IsError() {
		var e map[string]interface{}
		if err := json.NewDecoder(res.Body).Decode(&e); err != nil {
			return errors.Wrap(err, "failed to parse Elasticsearch error response")
		}
		return errors.Errorf("Elasticsearch index error: %v", e)
	}

	log.Debug().Str("supplier_id", supplier.ID).Msg("supplier indexed")
	return nil
}

// DeleteSupplier removes a supplier from the index
func (c *ElasticClient) DeleteSupplier(ctx context.Context, id string) error {
	if !c.Enabled() {
		return nil
	}

	indexName := config.FormatIndex(c.config, supplierIndex)
	req := esapi.DeleteRequest{
		Index:      indexName,
		DocumentID: id,
	}

	res, err := req.Do(ctx, c.client)
	if err != nil {
		return errors.Wrap(err, "failed to execute Elasticsearch delete request")
	}
	defer res.Body.Close()
	return nil
}

// SearchSuppliers runs a full-text query over indexed suppliers
func (c *ElasticClient) SearchSuppliers(ctx context.Context, term string, size int) ([]map[string]interface{}, error) {
	if !c.Enabled() {
		return nil, errors.New("search is disabled")
	}

	query := map[string]interface{}{
		"size": size,
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  term,
				"fields": []string{"company_name^2", "legal_name", "contact_person", "categories", "tags"},
			},
		},
	}

	queryJSON, err := json.Marshal(query)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal search query")
	}

	indexName := config.FormatIndex(c.config, supplierIndex)
	req := esapi.SearchRequest{
		Index: []string{indexName},
		Body:  bytes.NewReader(queryJSON),
	}

	res, err := req.Do(ctx, c.client)
	if err != nil {
		return nil, errors.Wrap(err, "failed to execute Elasticsearch search request")
	}
	defer res.Body.Close()

	if res.IsError() {
		var e map[string]interface{}
		if err := json.NewDecoder(res.Body).Decode(&e); err != nil {
			return nil, errors.Wrap(err, "failed to parse Elasticsearch error response")
		}
		return nil, errors.Errorf("Elasticsearch search error: %v", e)
	}

	var result map[string]interface{}
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return nil, errors.Wrap(err, "failed to parse Elasticsearch search response")
	}

	hits, ok := result["hits"].(map[string]interface{})
	if !ok {
		return nil, errors.New("unexpected search result format")
	}

	hitsArray, ok := hits["hits"].([]interface{})
	if !ok {
		return nil, errors.New("unexpected hits format")
	}

	var docs []map[string]interface{}
	for _, hit := range hitsArray {
		hitMap, ok := hit.(map[string]interface{})
		if !ok {
			continue
		}

		source, ok := hitMap["_source"].(map[string]interface{})
		if !ok {
			continue
		}

		docs = append(docs, source)
	}

	return docs, nil
}
