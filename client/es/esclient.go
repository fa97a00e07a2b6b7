package es

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"os"

	"github.com/elastic/go-elasticsearch/v7"
	"github.com/elastic/go-elasticsearch/v7/esapi"
	"github.com/elastic/go-elasticsearch/v7/estransport"
	"github.com/fundwit/go-commons/types"
)

var (
	SearchFunc             = Search
	IndexFunc              = Index
	DeleteDocumentByIdFunc = DeleteDocumentById
)

type H map[string]interface{}

type ESSearchResult struct {
	Took    int            `json:"took"`
	TimeOut bool           `json:"timed_out"`
	Shards  ESSearchShards `json:"_shards"`
	Hits    ESSearchHits   `json:"hits"`
}
type ESSearchShards struct {
	Total      int `json:"total"`
	Successful int `json:"successful"`
	Skipped    int `json:"skipped"`
	Failed     int `json:"failed"`
}
type ESSearchHits struct {
	Total    ESSearchHitsTotal `json:"total"`
	MaxScore float64           `json:"max_score"`
	Hits     []ESSearchHit     `json:"hits"`
}
type ESSearchHitsTotal struct {
	Value    int    `json:"value"`
	Relation string `json:"relation"`
}
type ESSearchHit struct {
	Index string `json:"_index"`
	Type  string `json:"_type"`
	Id    string `json:"_id"`

	Score  float64 `json:"_score"`
	Source Source  `json:"_source"`
}

type Source string

func (d *Source) UnmarshalJSON(data []byte) (err error) {
	*d = Source(data)
	return
}

func (d *Source) MarshalJSON() ([]byte, error) {
	return []byte(*d), nil
}

// ELASTICSEARCH_URL
var ActiveESClient *elasticsearch.Client

// CreateClientFromEnv ELASTICSEARCH_URL
func CreateClientFromEnv() *elasticsearch.Client {
	debug := os.Getenv("GIN_MODE") == "debug"
	conf := elasticsearch.Config{
		Logger:    &estransport.TextLogger{Output: os.Stdout, EnableRequestBody: debug, EnableResponseBody: debug},
		Transport: &TracingTransport{Transport: http.DefaultTransport},
	}
	client, err := elasticsearch.NewClient(conf)
	if err != nil {
		panic(err)
	}

	ActiveESClient = client
	return client
}

func Index(index string, docId types.ID, doc interface{}) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	req := esapi.IndexRequest{
		Index:      index,
		DocumentID: docId.String(),
		Body:       bytes.NewReader(body),
		Refresh:    "true",
	}
	res, err := req.Do(context.Background(), ActiveESClient)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() {
		respBody, _ := ioutil.ReadAll(res.Body)
		return fmt.Errorf("index document %s into %s: %s %s", docId.String(), index, res.Status(), string(respBody))
	}
	return nil
}

func Search(index string, query H) (*ESSearchResult, error) {
	body, err := json.Marshal(query)
	if err != nil {
		return nil, err
	}

	req := esapi.SearchRequest{
		Index: []string{index},
		Body:  bytes.NewReader(body),
	}
	res, err := req.Do(context.Background(), ActiveESClient)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	respBody, err := ioutil.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}
	if res.IsError() {
		return nil, fmt.Errorf("search %s: %s %s", index, res.Status(), string(respBody))
	}

	result := ESSearchResult{}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func DeleteDocumentById(index string, docId types.ID) error {
	req := esapi.DeleteRequest{
		Index:      index,
		DocumentID: docId.String(),
		Refresh:    "true",
	}
	res, err := req.Do(context.Background(), ActiveESClient)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		respBody, _ := ioutil.ReadAll(res.Body)
		return fmt.Errorf("delete document %s of %s: %s %s", docId.String(), index, res.Status(), string(respBody))
	}
	return nil
}
