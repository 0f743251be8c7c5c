package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"golang.org/x/text/language"

	"github.com/noah-isme/lms-content-api/internal/dto"
	"github.com/noah-isme/lms-content-api/internal/hierarchy"
	"github.com/noah-isme/lms-content-api/internal/models"
	"github.com/noah-isme/lms-content-api/internal/repository"
	appErrors "github.com/noah-isme/lms-content-api/pkg/errors"
)

const hierarchyCachePrefix = "hierarchy"

var tracer = otel.Tracer("github.com/noah-isme/lms-content-api/internal/service")

type hierarchyTopicReader interface {
	ListAll(ctx context.Context) ([]models.Topic, error)
	FindByID(ctx context.Context, id string) (*models.Topic, error)
}

type hierarchyContentReader interface {
	ListAll(ctx context.Context) ([]models.Content, error)
	FindByID(ctx context.Context, id string) (*models.Content, error)
}

type hierarchyCollectionReader interface {
	List(ctx context.Context, filter models.CollectionFilter) ([]models.Collection, int, error)
	FindByID(ctx context.Context, id string) (*models.Collection, error)
	ListMappings(ctx context.Context, collectionID string) ([]models.CollectionContentMapping, error)
}

type hierarchyRuleReader interface {
	List(ctx context.Context, q repository.FilterRuleQuery) ([]models.FilterRule, error)
	FindByID(ctx context.Context, id string) (*models.FilterRule, error)
}

// HierarchyConfig tunes tree resolution.
type HierarchyConfig struct {
	ContentLevel int
	Locale       string
	CacheTTL     time.Duration
	// Predicates backs custom filter rules, keyed by rule id or name.
	Predicates map[string]hierarchy.Predicate
}

// HierarchyService resolves browse trees and subject indexes from a fresh
// snapshot of the entity store.
type HierarchyService struct {
	topics      hierarchyTopicReader
	content     hierarchyContentReader
	collections hierarchyCollectionReader
	rules       hierarchyRuleReader
	cache       *CacheService
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
	evaluator   *hierarchy.Evaluator
	locale      language.Tag
	cfg         HierarchyConfig
	flight      singleflight.Group
}

// NewHierarchyService constructs a HierarchyService.
func NewHierarchyService(
	topics hierarchyTopicReader,
	content hierarchyContentReader,
	collections hierarchyCollectionReader,
	rules hierarchyRuleReader,
	cache *CacheService,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg HierarchyConfig,
) *HierarchyService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ContentLevel <= 0 {
		cfg.ContentLevel = models.ContentLevel
	}
	locale, err := language.Parse(cfg.Locale)
	if err != nil {
		if cfg.Locale != "" {
			logger.Warn("unknown hierarchy locale, falling back to root collation", zap.String("locale", cfg.Locale))
		}
		locale = language.Und
	}
	return &HierarchyService{
		topics:      topics,
		content:     content,
		collections: collections,
		rules:       rules,
		cache:       cache,
		metrics:     metrics,
		validator:   validate,
		logger:      logger,
		evaluator:   hierarchy.NewEvaluator(cfg.Predicates),
		locale:      locale,
		cfg:         cfg,
	}
}

type snapshot struct {
	topics      []models.Topic
	content     []models.Content
	rules       []models.FilterRule
	mappings    []models.CollectionContentMapping
	collection  *models.Collection
	criteria    hierarchy.Criteria
	diagnostics hierarchy.Diagnostics
}

// Tree resolves the hierarchy for q. The boolean reports a cache hit.
func (s *HierarchyService) Tree(ctx context.Context, q dto.HierarchyQuery) (*dto.HierarchyResponse, bool, error) {
	if err := s.validator.Struct(q); err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid hierarchy query")
	}
	q = normaliseHierarchyQuery(q)

	key := makeHierarchyCacheKey("tree", s.cacheGeneration(), strconv.Itoa(q.Level), q.Parent, q.Collection, strconv.FormatBool(q.Expand), strconv.FormatBool(q.IncludeUnassigned))
	var cached dto.HierarchyResponse
	if hit, err := s.cache.Get(ctx, key, &cached); err != nil {
		s.logger.Warn("hierarchy cache read failed", zap.String("key", key), zap.Error(err))
	} else if hit {
		return &cached, true, nil
	}

	// The shared build outlives any single caller's cancellation.
	flightCtx := context.WithoutCancel(ctx)
	v, err, _ := s.flight.Do(key, func() (interface{}, error) {
		resp, err := s.resolve(flightCtx, q)
		if err != nil {
			return nil, err
		}
		if err := s.cache.Set(flightCtx, key, resp, s.cfg.CacheTTL); err != nil {
			s.logger.Warn("cache hierarchy", zap.Error(err))
		}
		return resp, nil
	})
	if err != nil {
		return nil, false, err
	}
	return v.(*dto.HierarchyResponse), false, nil
}

func (s *HierarchyService) resolve(ctx context.Context, q dto.HierarchyQuery) (*dto.HierarchyResponse, error) {
	ctx, span := tracer.Start(ctx, "hierarchy.Tree", trace.WithAttributes(
		attribute.Int("hierarchy.level", q.Level),
		attribute.String("hierarchy.parent", q.Parent),
		attribute.String("hierarchy.collection", q.Collection),
		attribute.Bool("hierarchy.expand", q.Expand),
	))
	defer span.End()

	snap, err := s.loadSnapshot(ctx, q.Collection)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	mode := "level"
	if !hierarchy.IsAll(q.Collection) {
		mode = "collection"
	}

	start := time.Now()
	result := hierarchy.Build(hierarchy.Input{
		Topics:               snap.topics,
		Content:              snap.content,
		Mappings:             snap.mappings,
		SelectedLevel:        q.Level,
		SelectedParent:       q.Parent,
		SelectedCollectionID: q.Collection,
		Criteria:             snap.criteria,
		Rules:                snap.rules,
		Evaluator:            s.evaluator,
		Expand:               q.Expand,
		IncludeUnassigned:    q.IncludeUnassigned,
		ContentLevel:         s.cfg.ContentLevel,
		Locale:               s.locale,
	})
	diags := append(snap.diagnostics, result.Diagnostics...)
	if diags == nil {
		diags = hierarchy.Diagnostics{}
	}
	nodeCount := hierarchy.CountNodes(result.Nodes)
	s.metrics.ObserveHierarchyBuild(mode, time.Since(start), nodeCount, diags)
	s.logDiagnostics("hierarchy built with diagnostics", diags, zap.String("mode", mode), zap.String("collection", q.Collection))

	span.SetAttributes(
		attribute.String("hierarchy.mode", mode),
		attribute.Int("hierarchy.nodes", nodeCount),
		attribute.Int("hierarchy.diagnostics", len(diags)),
	)

	resp := &dto.HierarchyResponse{
		Nodes:       result.Nodes,
		Unassigned:  result.Unassigned,
		Diagnostics: diags,
		Collection:  snap.collection,
		NodeCount:   nodeCount,
	}
	if len(diags) > 0 {
		resp.Summary = diags.CountByKind()
	}
	return resp, nil
}

// Subjects builds the subject cross-index. When no subjects are requested
// the order is derived from the snapshot.
func (s *HierarchyService) Subjects(ctx context.Context, q dto.SubjectsQuery) (*dto.SubjectsResponse, bool, error) {
	q.Collection = normaliseSelector(q.Collection)
	order := normaliseSubjects(q.Subjects)

	key := makeHierarchyCacheKey("subjects", s.cacheGeneration(), q.Collection, strings.Join(order, ","))
	var cached dto.SubjectsResponse
	if hit, err := s.cache.Get(ctx, key, &cached); err != nil {
		s.logger.Warn("subjects cache read failed", zap.String("key", key), zap.Error(err))
	} else if hit {
		return &cached, true, nil
	}

	flightCtx := context.WithoutCancel(ctx)
	v, err, _ := s.flight.Do(key, func() (interface{}, error) {
		ctx, span := tracer.Start(flightCtx, "hierarchy.Subjects", trace.WithAttributes(
			attribute.String("hierarchy.collection", q.Collection),
			attribute.Int("hierarchy.subjects", len(order)),
		))
		defer span.End()

		snap, err := s.loadSnapshot(ctx, q.Collection)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}

		topics, content := snap.topics, snap.content
		if !hierarchy.IsAll(q.Collection) {
			scoped := hierarchy.ScopeToCollection(q.Collection, topics, content, snap.mappings)
			topics, content = snap.criteria.Apply(scoped.Topics, scoped.Content)
			s.logDiagnostics("subject index scoped with diagnostics", append(snap.diagnostics, scoped.Diagnostics...), zap.String("collection", q.Collection))
		}

		resolved := order
		if len(resolved) == 0 {
			resolved = hierarchy.KnownSubjects(topics, content)
		}
		resp := &dto.SubjectsResponse{
			Groups: hierarchy.GroupBySubject(content, resolved),
			Order:  resolved,
		}
		if resp.Order == nil {
			resp.Order = []string{}
		}
		if err := s.cache.Set(ctx, key, resp, s.cfg.CacheTTL); err != nil {
			s.logger.Warn("cache subjects", zap.Error(err))
		}
		return resp, nil
	})
	if err != nil {
		return nil, false, err
	}
	return v.(*dto.SubjectsResponse), false, nil
}

// EvaluateRule runs a stored or inline rule against one topic or content row.
func (s *HierarchyService) EvaluateRule(ctx context.Context, req dto.EvaluateRuleRequest) (*dto.EvaluateRuleResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid rule evaluation payload")
	}

	var rule models.FilterRule
	switch {
	case req.RuleID != "":
		stored, err := s.rules.FindByID(ctx, req.RuleID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "filter rule not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load filter rule")
		}
		rule = *stored
	case req.Rule != nil:
		rule = *req.Rule
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "rule_id or rule is required")
	}

	var entity hierarchy.Entity
	switch req.EntityKind {
	case hierarchy.KindTopic:
		topic, err := s.topics.FindByID(ctx, req.EntityID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "topic not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load topic")
		}
		entity = hierarchy.TopicEntity(*topic)
	default:
		item, err := s.content.FindByID(ctx, req.EntityID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "content not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load content")
		}
		entity = hierarchy.ContentEntity(*item, s.cfg.ContentLevel)
	}

	return &dto.EvaluateRuleResponse{
		RuleID:  rule.ID,
		Matched: s.evaluator.Evaluate(rule, entity, req.ParentMatchValue),
	}, nil
}

// Outline flattens the full tree of a collection for exports.
func (s *HierarchyService) Outline(ctx context.Context, collectionID string) (*models.Collection, []hierarchy.FlatNode, error) {
	if hierarchy.IsAll(normaliseSelector(collectionID)) {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "collection id is required")
	}
	resp, _, err := s.Tree(ctx, dto.HierarchyQuery{Collection: collectionID, Expand: true})
	if err != nil {
		return nil, nil, err
	}
	return resp.Collection, hierarchy.Flatten(resp.Nodes), nil
}

// Check scans the whole store for cycles, orphans, duplicate ids and broken
// collection data without touching the cache.
func (s *HierarchyService) Check(ctx context.Context) (*dto.HierarchyCheckReport, error) {
	ctx, span := tracer.Start(ctx, "hierarchy.Check")
	defer span.End()

	snap, err := s.loadSnapshot(ctx, hierarchy.All)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	// Level 1 with every subtree expanded reaches every rooted row; orphans
	// and cycle members are reported by the build itself.
	start := time.Now()
	base := hierarchy.Build(hierarchy.Input{
		Topics:            snap.topics,
		Content:           snap.content,
		SelectedLevel:     1,
		SelectedParent:    hierarchy.All,
		Expand:            true,
		IncludeUnassigned: true,
		ContentLevel:      s.cfg.ContentLevel,
		Locale:            s.locale,
	})
	diags := append(hierarchy.Diagnostics{}, base.Diagnostics...)

	collections, err := s.allCollections(ctx)
	if err != nil {
		return nil, err
	}
	for _, collection := range collections {
		criteria, criteriaDiags := hierarchy.ParseCriteria(collection.FilterCriteria)
		mappings, err := s.collections.ListMappings(ctx, collection.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load collection mappings")
		}
		result := hierarchy.Build(hierarchy.Input{
			Topics:               snap.topics,
			Content:              snap.content,
			Mappings:             mappings,
			SelectedCollectionID: collection.ID,
			Criteria:             criteria,
			ContentLevel:         s.cfg.ContentLevel,
			Locale:               s.locale,
		})
		for _, d := range append(criteriaDiags, result.Diagnostics...) {
			// Row level problems were already reported by the full build.
			if d.Kind == hierarchy.DiagCycle || d.Kind == hierarchy.DiagOrphan || d.Kind == hierarchy.DiagDuplicateID || d.Kind == hierarchy.DiagMissingID {
				continue
			}
			d.Detail = fmt.Sprintf("collection %s: %s", collection.ID, d.Detail)
			diags = append(diags, d)
		}
	}

	span.SetAttributes(attribute.Int("hierarchy.diagnostics", len(diags)))
	s.metrics.ObserveHierarchyBuild("check", time.Since(start), hierarchy.CountNodes(base.Nodes), nil)
	s.logDiagnostics("hierarchy check found problems", diags)

	return &dto.HierarchyCheckReport{
		Diagnostics: diags,
		Summary:     diags.CountByKind(),
		Collections: len(collections),
		Topics:      len(snap.topics),
		Content:     len(snap.content),
	}, nil
}

func (s *HierarchyService) loadSnapshot(ctx context.Context, collectionID string) (*snapshot, error) {
	ctx, span := tracer.Start(ctx, "hierarchy.loadSnapshot")
	defer span.End()

	snap := &snapshot{}
	start := time.Now()

	if !hierarchy.IsAll(collectionID) {
		collection, err := s.collections.FindByID(ctx, collectionID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "collection not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load collection")
		}
		if !collection.IsActive {
			return nil, appErrors.ErrCollectionInactive
		}
		snap.collection = collection
		snap.criteria, snap.diagnostics = hierarchy.ParseCriteria(collection.FilterCriteria)

		mappings, err := s.collections.ListMappings(ctx, collectionID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load collection mappings")
		}
		snap.mappings = mappings
	}

	topics, err := s.topics.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load topics")
	}
	content, err := s.content.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load content")
	}
	rules, err := s.rules.List(ctx, repository.FilterRuleQuery{ActiveOnly: true})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load filter rules")
	}
	snap.topics, snap.content, snap.rules = topics, content, rules

	s.metrics.ObserveDBQuery("hierarchy_snapshot", time.Since(start))
	span.SetAttributes(
		attribute.Int("hierarchy.topics", len(topics)),
		attribute.Int("hierarchy.content", len(content)),
		attribute.Int("hierarchy.rules", len(rules)),
		attribute.Int("hierarchy.mappings", len(snap.mappings)),
	)
	return snap, nil
}

func (s *HierarchyService) allCollections(ctx context.Context) ([]models.Collection, error) {
	const pageSize = 100
	var out []models.Collection
	for page := 1; ; page++ {
		items, total, err := s.collections.List(ctx, models.CollectionFilter{Page: page, PageSize: pageSize})
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list collections")
		}
		out = append(out, items...)
		if len(items) < pageSize || len(out) >= total {
			return out, nil
		}
	}
}

func (s *HierarchyService) logDiagnostics(msg string, diags hierarchy.Diagnostics, fields ...zap.Field) {
	if len(diags) == 0 {
		return
	}
	counts := diags.CountByKind()
	kinds := make([]string, 0, len(counts))
	for kind := range counts {
		kinds = append(kinds, string(kind))
	}
	sort.Strings(kinds)
	for _, kind := range kinds {
		fields = append(fields, zap.Int(kind, counts[hierarchy.DiagnosticKind(kind)]))
	}
	s.logger.Warn(msg, fields...)
}

func normaliseHierarchyQuery(q dto.HierarchyQuery) dto.HierarchyQuery {
	if q.Level <= 0 {
		q.Level = 1
	}
	q.Parent = normaliseSelector(q.Parent)
	q.Collection = normaliseSelector(q.Collection)
	return q
}

func normaliseSelector(value string) string {
	value = strings.TrimSpace(value)
	if value == "" || hierarchy.IsAll(value) {
		return hierarchy.All
	}
	return value
}

func normaliseSubjects(values []string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, raw := range values {
		for _, part := range strings.Split(raw, ",") {
			subject := strings.TrimSpace(part)
			if subject == "" || seen[subject] {
				continue
			}
			seen[subject] = true
			out = append(out, subject)
		}
	}
	return out
}

// cacheGeneration tags keys so a build that started before an invalidation
// cannot repopulate the entries the invalidation removed.
func (s *HierarchyService) cacheGeneration() string {
	return "g" + strconv.FormatUint(s.cache.Generation(), 10)
}

func makeHierarchyCacheKey(parts ...string) string {
	var builder strings.Builder
	builder.Grow(len(parts) * 16)
	builder.WriteString(hierarchyCachePrefix)
	for _, part := range parts {
		builder.WriteByte(':')
		builder.WriteString(strings.ReplaceAll(part, ":", "|"))
	}
	return builder.String()
}
