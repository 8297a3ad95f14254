// Package control exposes the recorder over a small GraphQL API, so it can be driven
// without the terminal.
//
//	{ state elapsed resetEnabled session recording { duration peak rms } }
//	mutation { press }
//	mutation { reset }
package control

import (
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"time"

	"github.com/golang/glog"
	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/language/ast"
	"github.com/graphql-go/graphql/language/parser"

	"github.com/peragwin/recorder/app"
	"github.com/peragwin/recorder/audio/scratch"
)

// Recorder is the part of the controller exposed remotely.
type Recorder interface {
	Press() error
	Reset() error
	State() app.State
	ResetEnabled() bool
	Elapsed() time.Duration
	Session() string
}

// Server answers GraphQL queries against a Recorder.
type Server struct {
	rec        Recorder
	amplitudes func() []int
	summary    func() *scratch.Summary
	schema     graphql.Schema
}

// New builds the schema. amplitudes and summary may be nil.
func New(rec Recorder, amplitudes func() []int, summary func() *scratch.Summary) (*Server, error) {
	s := &Server{rec: rec, amplitudes: amplitudes, summary: summary}
	if err := s.initGraphql(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Server) initGraphql() error {
	summaryType := graphql.NewObject(
		graphql.ObjectConfig{
			Name: "RecordingType",
			Fields: graphql.Fields{
				"duration": &graphql.Field{
					Type:        graphql.Float,
					Description: "length in seconds",
					Resolve: func(p graphql.ResolveParams) (interface{}, error) {
						return p.Source.(*scratch.Summary).Duration.Seconds(), nil
					},
				},
				"peak": &graphql.Field{
					Type: graphql.Float,
					Resolve: func(p graphql.ResolveParams) (interface{}, error) {
						return p.Source.(*scratch.Summary).Peak, nil
					},
				},
				"rms": &graphql.Field{
					Type: graphql.Float,
					Resolve: func(p graphql.ResolveParams) (interface{}, error) {
						return p.Source.(*scratch.Summary).RMS, nil
					},
				},
			},
		},
	)

	rootQuery := graphql.NewObject(
		graphql.ObjectConfig{
			Name: "RootQuery",
			Fields: graphql.Fields{
				"state": &graphql.Field{
					Type: graphql.String,
					Resolve: func(graphql.ResolveParams) (interface{}, error) {
						return s.rec.State().String(), nil
					},
				},
				"elapsed": &graphql.Field{
					Type: graphql.String,
					Resolve: func(graphql.ResolveParams) (interface{}, error) {
						return app.FormatElapsed(s.rec.Elapsed()), nil
					},
				},
				"resetEnabled": &graphql.Field{
					Type: graphql.Boolean,
					Resolve: func(graphql.ResolveParams) (interface{}, error) {
						return s.rec.ResetEnabled(), nil
					},
				},
				"session": &graphql.Field{
					Type: graphql.String,
					Resolve: func(graphql.ResolveParams) (interface{}, error) {
						return s.rec.Session(), nil
					},
				},
				"amplitudes": &graphql.Field{
					Type: graphql.NewList(graphql.Int),
					Args: graphql.FieldConfigArgument{
						"last": &graphql.ArgumentConfig{Type: graphql.Int},
					},
					Resolve: func(p graphql.ResolveParams) (interface{}, error) {
						if s.amplitudes == nil {
							return []int{}, nil
						}
						amps := s.amplitudes()
						if last, ok := p.Args["last"].(int); ok && last >= 0 && last < len(amps) {
							amps = amps[:last]
						}
						return amps, nil
					},
				},
				"recording": &graphql.Field{
					Type: summaryType,
					Resolve: func(graphql.ResolveParams) (interface{}, error) {
						if s.summary == nil {
							return nil, nil
						}
						sum := s.summary()
						if sum == nil {
							return nil, nil
						}
						return sum, nil
					},
				},
			},
		},
	)

	rootMut := graphql.NewObject(
		graphql.ObjectConfig{
			Name: "RootMut",
			Fields: graphql.Fields{
				"press": &graphql.Field{
					Type: graphql.String,
					Resolve: func(graphql.ResolveParams) (interface{}, error) {
						if err := s.rec.Press(); err != nil {
							return nil, err
						}
						return s.rec.State().String(), nil
					},
				},
				"reset": &graphql.Field{
					Type: graphql.String,
					Resolve: func(graphql.ResolveParams) (interface{}, error) {
						if err := s.rec.Reset(); err != nil {
							return nil, err
						}
						return s.rec.State().String(), nil
					},
				},
			},
		},
	)

	schema, err := graphql.NewSchema(
		graphql.SchemaConfig{
			Query:    rootQuery,
			Mutation: rootMut,
		},
	)
	if err != nil {
		return err
	}
	s.schema = schema
	return nil
}

// Query runs a GraphQL request.
func (s *Server) Query(query string, vars map[string]interface{}) *graphql.Result {
	return graphql.Do(graphql.Params{
		Schema:         s.schema,
		RequestString:  query,
		VariableValues: vars,
	})
}

type request struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables"`
}

// hasMutation reports whether query declares a mutation. Queries that don't parse are left
// for graphql.Do to reject.
func hasMutation(query string) bool {
	doc, err := parser.Parse(parser.ParseParams{Source: query})
	if err != nil {
		return false
	}
	for _, def := range doc.Definitions {
		if op, ok := def.(*ast.OperationDefinition); ok && op.Operation == ast.OperationTypeMutation {
			return true
		}
	}
	return false
}

// Handler serves GET /api/v1/graphql?query=... and POST /api/v2/graphql with a JSON body
// {"query": ..., "variables": ...}. GET only answers queries, and POST requires an
// application/json body, so a plain link or form on another site cannot press the buttons.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/v1/graphql", func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query().Get("query")
		glog.V(2).Info(query)
		if hasMutation(query) {
			http.Error(w, "mutations must be sent with POST to /api/v2/graphql", http.StatusMethodNotAllowed)
			return
		}
		s.respond(w, s.Query(query, nil))
	})

	mux.HandleFunc("/api/v2/graphql", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "POST required", http.StatusMethodNotAllowed)
			return
		}
		if mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type")); err != nil || mt != "application/json" {
			http.Error(w, "Content-Type must be application/json", http.StatusUnsupportedMediaType)
			return
		}
		body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		var req request
		if err := json.Unmarshal(body, &req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if req.Query == "" {
			http.Error(w, "missing query", http.StatusBadRequest)
			return
		}
		glog.V(2).Info(req.Query)
		s.respond(w, s.Query(req.Query, req.Variables))
	})

	return mux
}

func (s *Server) respond(w http.ResponseWriter, res *graphql.Result) {
	for _, err := range res.Errors {
		glog.Warningf("control: %v", err.Message)
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(res); err != nil {
		glog.Errorf("control: encoding response: %v", err)
	}
}
