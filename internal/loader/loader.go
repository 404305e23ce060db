package loader

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/SAP-F-2025/qti-delivery-service/internal/models"
	"github.com/SAP-F-2025/qti-delivery-service/internal/processing"
)

// LoadTestFile reads a JSON test definition from disk and resolves it
// into the runtime data model.
func LoadTestFile(path string) (*models.AssessmentTest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read test definition: %w", err)
	}
	return LoadTest(data)
}

// LoadTest resolves a JSON test definition into the runtime data model.
func LoadTest(data []byte) (*models.AssessmentTest, error) {
	var doc testDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse test definition: %w", err)
	}
	return doc.resolve()
}

// ===== DOCUMENT TYPES =====

type testDoc struct {
	Identifier          string     `json:"identifier"`
	Title               string     `json:"title"`
	TestParts           []partDoc  `json:"testParts"`
	OutcomeDeclarations []declDoc  `json:"outcomeDeclarations"`
	TimeLimits          *limitsDoc `json:"timeLimits"`
}

type partDoc struct {
	Identifier     string       `json:"identifier"`
	NavigationMode string       `json:"navigationMode"`
	SubmissionMode string       `json:"submissionMode"`
	PreConditions  []exprDoc    `json:"preConditions"`
	BranchRules    []branchDoc  `json:"branchRules"`
	SessionControl *controlDoc  `json:"itemSessionControl"`
	TimeLimits     *limitsDoc   `json:"timeLimits"`
	Sections       []sectionDoc `json:"sections"`
}

type sectionDoc struct {
	Identifier     string      `json:"identifier"`
	Title          string      `json:"title"`
	Visible        *bool       `json:"visible"`
	KeepTogether   *bool       `json:"keepTogether"`
	Required       bool        `json:"required"`
	Fixed          bool        `json:"fixed"`
	Selection      *selectDoc  `json:"selection"`
	Ordering       *orderDoc   `json:"ordering"`
	PreConditions  []exprDoc   `json:"preConditions"`
	BranchRules    []branchDoc `json:"branchRules"`
	SessionControl *controlDoc `json:"itemSessionControl"`
	TimeLimits     *limitsDoc  `json:"timeLimits"`
	Children       []childDoc  `json:"children"`
}

// childDoc is one section child: exactly one of the two fields is set.
type childDoc struct {
	Section *sectionDoc `json:"section"`
	ItemRef *itemRefDoc `json:"itemRef"`
}

type itemRefDoc struct {
	Identifier     string            `json:"identifier"`
	Href           string            `json:"href"`
	Categories     []string          `json:"categories"`
	Required       bool              `json:"required"`
	Fixed          bool              `json:"fixed"`
	Weights        []weightDoc       `json:"weights"`
	VariableMaps   map[string]string `json:"variableMappings"`
	PreConditions  []exprDoc         `json:"preConditions"`
	BranchRules    []branchDoc       `json:"branchRules"`
	SessionControl *controlDoc       `json:"itemSessionControl"`
	TimeLimits     *limitsDoc        `json:"timeLimits"`
	Item           *itemDoc          `json:"item"`
}

type itemDoc struct {
	Identifier                 string    `json:"identifier"`
	Title                      string    `json:"title"`
	Adaptive                   bool      `json:"adaptive"`
	TimeDependent              bool      `json:"timeDependent"`
	ResponseDeclarations       []declDoc `json:"responseDeclarations"`
	OutcomeDeclarations        []declDoc `json:"outcomeDeclarations"`
	TemplateDeclarations       []declDoc `json:"templateDeclarations"`
	ResponseProcessingTemplate string    `json:"responseProcessingTemplate"`
}

type declDoc struct {
	Identifier      string      `json:"identifier"`
	BaseType        string      `json:"baseType"`
	Cardinality     string      `json:"cardinality"`
	DefaultValue    []string    `json:"defaultValue"`
	CorrectResponse []string    `json:"correctResponse"`
	Mapping         *mappingDoc `json:"mapping"`
}

type mappingDoc struct {
	LowerBound   *float64      `json:"lowerBound"`
	UpperBound   *float64      `json:"upperBound"`
	DefaultValue float64       `json:"defaultValue"`
	Entries      []mapEntryDoc `json:"entries"`
}

type mapEntryDoc struct {
	MapKey        string  `json:"mapKey"`
	MappedValue   float64 `json:"mappedValue"`
	CaseSensitive bool    `json:"caseSensitive"`
}

type weightDoc struct {
	Identifier string  `json:"identifier"`
	Value      float64 `json:"value"`
}

type selectDoc struct {
	Select          int  `json:"select"`
	WithReplacement bool `json:"withReplacement"`
}

type orderDoc struct {
	Shuffle bool `json:"shuffle"`
}

type controlDoc struct {
	MaxAttempts       *int  `json:"maxAttempts"`
	ShowFeedback      *bool `json:"showFeedback"`
	AllowReview       *bool `json:"allowReview"`
	ShowSolution      *bool `json:"showSolution"`
	AllowComment      *bool `json:"allowComment"`
	AllowSkipping     *bool `json:"allowSkipping"`
	ValidateResponses *bool `json:"validateResponses"`
}

type limitsDoc struct {
	MinSeconds          *float64 `json:"minSeconds"`
	MaxSeconds          *float64 `json:"maxSeconds"`
	AllowLateSubmission bool     `json:"allowLateSubmission"`
}

type branchDoc struct {
	Target     string  `json:"target"`
	Expression exprDoc `json:"expression"`
}

// exprDoc is the tagged union of supported expression forms: exactly one
// field is set.
type exprDoc struct {
	Const *bool     `json:"const"`
	Match *matchDoc `json:"match"`
	Not   *exprDoc  `json:"not"`
	And   []exprDoc `json:"and"`
}

type matchDoc struct {
	Identifier string `json:"identifier"`
	BaseType   string `json:"baseType"`
	Value      string `json:"value"`
}

// ===== RESOLUTION =====

func (d testDoc) resolve() (*models.AssessmentTest, error) {
	if d.Identifier == "" {
		return nil, fmt.Errorf("test definition missing identifier")
	}
	if len(d.TestParts) == 0 {
		return nil, fmt.Errorf("test %s declares no test parts", d.Identifier)
	}
	test := &models.AssessmentTest{
		Identifier: d.Identifier,
		Title:      d.Title,
	}
	var err error
	if test.TimeLimits, err = resolveLimits(d.TimeLimits); err != nil {
		return nil, fmt.Errorf("test %s: %w", d.Identifier, err)
	}
	for _, dd := range d.OutcomeDeclarations {
		decl, err := resolveDecl(dd, models.NatureOutcome)
		if err != nil {
			return nil, fmt.Errorf("test %s: %w", d.Identifier, err)
		}
		test.OutcomeDeclarations = append(test.OutcomeDeclarations, decl)
	}
	for _, pd := range d.TestParts {
		part, err := pd.resolve()
		if err != nil {
			return nil, err
		}
		test.TestParts = append(test.TestParts, part)
	}
	return test, nil
}

func (d partDoc) resolve() (*models.TestPart, error) {
	if d.Identifier == "" {
		return nil, fmt.Errorf("test part missing identifier")
	}
	nav, err := models.ParseNavigationMode(d.NavigationMode)
	if err != nil {
		return nil, fmt.Errorf("test part %s: %w", d.Identifier, err)
	}
	sub, err := models.ParseSubmissionMode(d.SubmissionMode)
	if err != nil {
		return nil, fmt.Errorf("test part %s: %w", d.Identifier, err)
	}
	part := &models.TestPart{
		Identifier:     d.Identifier,
		NavigationMode: nav,
		SubmissionMode: sub,
	}
	if part.PreConditions, err = resolvePreConditions(d.PreConditions); err != nil {
		return nil, fmt.Errorf("test part %s: %w", d.Identifier, err)
	}
	if part.BranchRules, err = resolveBranchRules(d.BranchRules); err != nil {
		return nil, fmt.Errorf("test part %s: %w", d.Identifier, err)
	}
	part.ItemSessionControl = resolveControl(d.SessionControl)
	if part.TimeLimits, err = resolveLimits(d.TimeLimits); err != nil {
		return nil, fmt.Errorf("test part %s: %w", d.Identifier, err)
	}
	if len(d.Sections) == 0 {
		return nil, fmt.Errorf("test part %s declares no sections", d.Identifier)
	}
	for _, sd := range d.Sections {
		section, err := sd.resolve()
		if err != nil {
			return nil, err
		}
		part.Sections = append(part.Sections, section)
	}
	return part, nil
}

func (d sectionDoc) resolve() (*models.AssessmentSection, error) {
	if d.Identifier == "" {
		return nil, fmt.Errorf("section missing identifier")
	}
	section := models.NewAssessmentSection(d.Identifier, d.Title)
	if d.Visible != nil {
		section.Visible = *d.Visible
	}
	if d.KeepTogether != nil {
		section.KeepTogether = *d.KeepTogether
	}
	section.Required = d.Required
	section.Fixed = d.Fixed
	if d.Selection != nil {
		section.Selection = &models.Selection{
			Select:          d.Selection.Select,
			WithReplacement: d.Selection.WithReplacement,
		}
	}
	if d.Ordering != nil {
		section.Ordering = &models.Ordering{Shuffle: d.Ordering.Shuffle}
	}
	var err error
	if section.PreConditions, err = resolvePreConditions(d.PreConditions); err != nil {
		return nil, fmt.Errorf("section %s: %w", d.Identifier, err)
	}
	if section.BranchRules, err = resolveBranchRules(d.BranchRules); err != nil {
		return nil, fmt.Errorf("section %s: %w", d.Identifier, err)
	}
	section.ItemSessionControl = resolveControl(d.SessionControl)
	if section.TimeLimits, err = resolveLimits(d.TimeLimits); err != nil {
		return nil, fmt.Errorf("section %s: %w", d.Identifier, err)
	}
	for i, cd := range d.Children {
		switch {
		case cd.Section != nil && cd.ItemRef != nil:
			return nil, fmt.Errorf("section %s child %d sets both section and itemRef", d.Identifier, i)
		case cd.Section != nil:
			child, err := cd.Section.resolve()
			if err != nil {
				return nil, err
			}
			section.Children = append(section.Children, models.SectionPart{Section: child})
		case cd.ItemRef != nil:
			ref, err := cd.ItemRef.resolve()
			if err != nil {
				return nil, err
			}
			section.Children = append(section.Children, models.SectionPart{ItemRef: ref})
		default:
			return nil, fmt.Errorf("section %s child %d is empty", d.Identifier, i)
		}
	}
	return section, nil
}

func (d *itemRefDoc) resolve() (*models.AssessmentItemRef, error) {
	if d.Identifier == "" {
		return nil, fmt.Errorf("item reference missing identifier")
	}
	if d.Item == nil {
		return nil, fmt.Errorf("item reference %s carries no item definition", d.Identifier)
	}
	ref := &models.AssessmentItemRef{
		Identifier:   d.Identifier,
		Href:         d.Href,
		Categories:   d.Categories,
		Required:     d.Required,
		Fixed:        d.Fixed,
		VariableMaps: d.VariableMaps,
	}
	for _, wd := range d.Weights {
		ref.Weights = append(ref.Weights, models.Weight{Identifier: wd.Identifier, Value: wd.Value})
	}
	var err error
	if ref.PreConditions, err = resolvePreConditions(d.PreConditions); err != nil {
		return nil, fmt.Errorf("item reference %s: %w", d.Identifier, err)
	}
	if ref.BranchRules, err = resolveBranchRules(d.BranchRules); err != nil {
		return nil, fmt.Errorf("item reference %s: %w", d.Identifier, err)
	}
	ref.ItemSessionControl = resolveControl(d.SessionControl)
	if ref.TimeLimits, err = resolveLimits(d.TimeLimits); err != nil {
		return nil, fmt.Errorf("item reference %s: %w", d.Identifier, err)
	}
	if ref.Item, err = d.Item.resolve(); err != nil {
		return nil, fmt.Errorf("item reference %s: %w", d.Identifier, err)
	}
	return ref, nil
}

func (d *itemDoc) resolve() (*models.AssessmentItem, error) {
	if d.Identifier == "" {
		return nil, fmt.Errorf("item missing identifier")
	}
	item := &models.AssessmentItem{
		Identifier:                 d.Identifier,
		Title:                      d.Title,
		Adaptive:                   d.Adaptive,
		TimeDependent:              d.TimeDependent,
		ResponseProcessingTemplate: d.ResponseProcessingTemplate,
	}
	for _, dd := range d.ResponseDeclarations {
		decl, err := resolveDecl(dd, models.NatureResponse)
		if err != nil {
			return nil, err
		}
		item.ResponseDeclarations = append(item.ResponseDeclarations, decl)
	}
	for _, dd := range d.OutcomeDeclarations {
		decl, err := resolveDecl(dd, models.NatureOutcome)
		if err != nil {
			return nil, err
		}
		item.OutcomeDeclarations = append(item.OutcomeDeclarations, decl)
	}
	for _, dd := range d.TemplateDeclarations {
		decl, err := resolveDecl(dd, models.NatureTemplate)
		if err != nil {
			return nil, err
		}
		item.TemplateDeclarations = append(item.TemplateDeclarations, decl)
	}
	return item, nil
}

func resolveDecl(d declDoc, nature models.VariableNature) (*models.VariableDeclaration, error) {
	if d.Identifier == "" {
		return nil, fmt.Errorf("variable declaration missing identifier")
	}
	bt, err := models.ParseBaseType(d.BaseType)
	if err != nil {
		return nil, fmt.Errorf("declaration %s: %w", d.Identifier, err)
	}
	card, err := models.ParseCardinality(d.Cardinality)
	if err != nil {
		return nil, fmt.Errorf("declaration %s: %w", d.Identifier, err)
	}
	decl := &models.VariableDeclaration{
		Identifier:  d.Identifier,
		Nature:      nature,
		BaseType:    bt,
		Cardinality: card,
	}
	if decl.DefaultValue, err = resolveValue(d.DefaultValue, card, bt); err != nil {
		return nil, fmt.Errorf("declaration %s default: %w", d.Identifier, err)
	}
	if decl.CorrectResponse, err = resolveValue(d.CorrectResponse, card, bt); err != nil {
		return nil, fmt.Errorf("declaration %s correct response: %w", d.Identifier, err)
	}
	if d.Mapping != nil {
		m := &models.Mapping{
			LowerBound:   d.Mapping.LowerBound,
			UpperBound:   d.Mapping.UpperBound,
			DefaultValue: d.Mapping.DefaultValue,
		}
		for _, ed := range d.Mapping.Entries {
			key, err := models.ParseScalar(bt, ed.MapKey)
			if err != nil {
				return nil, fmt.Errorf("declaration %s map key: %w", d.Identifier, err)
			}
			m.Entries = append(m.Entries, models.MapEntry{
				MapKey:        key,
				MappedValue:   ed.MappedValue,
				CaseSensitive: ed.CaseSensitive,
			})
		}
		decl.Mapping = m
	}
	return decl, nil
}

func resolveValue(raw []string, card models.Cardinality, bt models.BaseType) (*models.Value, error) {
	if raw == nil {
		return nil, nil
	}
	scalars := make([]models.Scalar, 0, len(raw))
	for _, s := range raw {
		scalar, err := models.ParseScalar(bt, s)
		if err != nil {
			return nil, err
		}
		scalars = append(scalars, scalar)
	}
	var v models.Value
	switch card {
	case models.CardinalitySingle:
		if len(scalars) != 1 {
			return nil, fmt.Errorf("single cardinality needs exactly one value, got %d", len(scalars))
		}
		v = models.NewSingle(scalars[0])
	case models.CardinalityMultiple:
		v = models.NewMultiple(bt, scalars...)
	case models.CardinalityOrdered:
		v = models.NewOrdered(bt, scalars...)
	case models.CardinalityRecord:
		return nil, fmt.Errorf("record values are not supported in test definitions")
	}
	return &v, nil
}

func resolveControl(d *controlDoc) *models.ItemSessionControl {
	if d == nil {
		return nil
	}
	c := models.DefaultItemSessionControl()
	if d.MaxAttempts != nil {
		c.MaxAttempts = *d.MaxAttempts
	}
	if d.ShowFeedback != nil {
		c.ShowFeedback = *d.ShowFeedback
	}
	if d.AllowReview != nil {
		c.AllowReview = *d.AllowReview
	}
	if d.ShowSolution != nil {
		c.ShowSolution = *d.ShowSolution
	}
	if d.AllowComment != nil {
		c.AllowComment = *d.AllowComment
	}
	if d.AllowSkipping != nil {
		c.AllowSkipping = *d.AllowSkipping
	}
	if d.ValidateResponses != nil {
		c.ValidateResponses = *d.ValidateResponses
	}
	return &c
}

func resolveLimits(d *limitsDoc) (*models.TimeLimits, error) {
	if d == nil {
		return nil, nil
	}
	tl := &models.TimeLimits{AllowLateSubmission: d.AllowLateSubmission}
	if d.MinSeconds != nil {
		if *d.MinSeconds < 0 {
			return nil, fmt.Errorf("minSeconds must not be negative")
		}
		min := time.Duration(*d.MinSeconds * float64(time.Second))
		tl.MinTime = &min
	}
	if d.MaxSeconds != nil {
		if *d.MaxSeconds < 0 {
			return nil, fmt.Errorf("maxSeconds must not be negative")
		}
		max := time.Duration(*d.MaxSeconds * float64(time.Second))
		tl.MaxTime = &max
	}
	return tl, nil
}

func resolvePreConditions(docs []exprDoc) ([]*models.PreCondition, error) {
	if len(docs) == 0 {
		return nil, nil
	}
	out := make([]*models.PreCondition, 0, len(docs))
	for _, d := range docs {
		expr, err := d.resolve()
		if err != nil {
			return nil, err
		}
		out = append(out, &models.PreCondition{Expression: expr})
	}
	return out, nil
}

func resolveBranchRules(docs []branchDoc) ([]*models.BranchRule, error) {
	if len(docs) == 0 {
		return nil, nil
	}
	out := make([]*models.BranchRule, 0, len(docs))
	for _, d := range docs {
		if d.Target == "" {
			return nil, fmt.Errorf("branch rule missing target")
		}
		expr, err := d.Expression.resolve()
		if err != nil {
			return nil, fmt.Errorf("branch rule to %s: %w", d.Target, err)
		}
		out = append(out, &models.BranchRule{Target: d.Target, Expression: expr})
	}
	return out, nil
}

func (d exprDoc) resolve() (models.Expression, error) {
	switch {
	case d.Const != nil:
		return processing.ConstExpression{Value: *d.Const}, nil
	case d.Match != nil:
		bt, err := models.ParseBaseType(d.Match.BaseType)
		if err != nil {
			return nil, err
		}
		value, err := models.ParseScalar(bt, d.Match.Value)
		if err != nil {
			return nil, err
		}
		return processing.MatchExpression{Identifier: d.Match.Identifier, Value: value}, nil
	case d.Not != nil:
		operand, err := d.Not.resolve()
		if err != nil {
			return nil, err
		}
		return processing.NotExpression{Operand: operand}, nil
	case len(d.And) > 0:
		operands := make([]models.Expression, 0, len(d.And))
		for _, od := range d.And {
			operand, err := od.resolve()
			if err != nil {
				return nil, err
			}
			operands = append(operands, operand)
		}
		return processing.AndExpression{Operands: operands}, nil
	default:
		return nil, fmt.Errorf("expression sets none of const, match, not, and")
	}
}
