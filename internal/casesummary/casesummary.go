// Package casesummary defines the structured record the model is asked to
// produce for one patient, along with the metadata used to describe each
// field to the model and to label it in the printed output.
package casesummary

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/tidwall/gjson"
)

// ErrSchema is returned when a model response does not match the schema.
var ErrSchema = errors.New("response does not match case summary schema")

const (
	// SchemaName identifies the schema in the structured-output request.
	SchemaName = "CaseSummary"
	// SchemaDescription is sent alongside the schema.
	SchemaDescription = "Structured summary of one patient's clinical and genomic history."
)

// CaseSummary is the single record produced per run.
type CaseSummary struct {
	PatientID                   string `json:"patient_id" validate:"required,notblank"`
	SampleIDs                   string `json:"sample_ids" validate:"required,notblank"`
	ClinicalContext             string `json:"clinical_context" validate:"required,notblank"`
	ClinicalTimeline            string `json:"clinical_timeline" validate:"required,notblank"`
	MolecularProfile            string `json:"molecular_profile" validate:"required,notblank"`
	StudyContext                string `json:"study_context" validate:"required,notblank"`
	ScientificImplications      string `json:"scientific_implications" validate:"required,notblank"`
	ResistanceMechanisms        string `json:"resistance_mechanisms" validate:"required,notblank"`
	DiagnosisHistory            string `json:"diagnosis_history" validate:"required,notblank"`
	MutationalSignatures        string `json:"mutational_signatures" validate:"required,notblank"`
	Methylation                 string `json:"methylation" validate:"required,notblank"`
	TreatmentHistory            string `json:"treatment_history" validate:"required,notblank"`
	Summary                     string `json:"summary" validate:"required,notblank"`
	TreatmentRecommendation     string `json:"treatment_recommendation" validate:"required,notblank"`
	ClinicalTrialRecommendation string `json:"clinical_trial_recommendation" validate:"required,notblank"`
}

// Field describes one CaseSummary member.
type Field struct {
	Name        string // wire identifier, matches the json tag
	Label       string // display label used in printed output
	Description string // instruction given to the model

	ref func(*CaseSummary) *string
}

// Fields lists every CaseSummary member in declaration order.
var Fields = []Field{
	{
		Name:        "patient_id",
		Label:       "Patient ID",
		Description: "Identifier of the patient as it appears in the case files.",
		ref:         func(s *CaseSummary) *string { return &s.PatientID },
	},
	{
		Name:        "sample_ids",
		Label:       "Sample IDs",
		Description: "Comma-separated identifiers of every sample taken from this patient, with the time point of each when known.",
		ref:         func(s *CaseSummary) *string { return &s.SampleIDs },
	},
	{
		Name:        "clinical_context",
		Label:       "Clinical context",
		Description: "A short overview of the patient and disease.",
		ref:         func(s *CaseSummary) *string { return &s.ClinicalContext },
	},
	{
		Name:        "clinical_timeline",
		Label:       "Clinical timeline",
		Description: "A short overview of treatments, surgery, and recurrences.",
		ref:         func(s *CaseSummary) *string { return &s.ClinicalTimeline },
	},
	{
		Name:        "molecular_profile",
		Label:       "Molecular profile",
		Description: "What mutations were seen, OncoKB levels, and interpretation.",
		ref:         func(s *CaseSummary) *string { return &s.MolecularProfile },
	},
	{
		Name:        "study_context",
		Label:       "Study context",
		Description: "What is this study about, what is its scientific contribution, and how does the patient fit into the cohort?",
		ref:         func(s *CaseSummary) *string { return &s.StudyContext },
	},
	{
		Name:        "scientific_implications",
		Label:       "Scientific implications",
		Description: "What this case illustrates biologically or clinically: tumor evolution, the role of truncal mutations and potential clonal selection.",
		ref:         func(s *CaseSummary) *string { return &s.ScientificImplications },
	},
	{
		Name:        "resistance_mechanisms",
		Label:       "Resistance mechanisms",
		Description: "Mechanisms of treatment resistance suggested by the data, such as mismatch-repair loss after temozolomide.",
		ref:         func(s *CaseSummary) *string { return &s.ResistanceMechanisms },
	},
	{
		Name:        "diagnosis_history",
		Label:       "Diagnosis history",
		Description: "Initial diagnosis, grade and histology, and any change of diagnosis at recurrence.",
		ref:         func(s *CaseSummary) *string { return &s.DiagnosisHistory },
	},
	{
		Name:        "mutational_signatures",
		Label:       "Mutational signatures",
		Description: "Mutational signatures observed or expected (e.g. COSMIC TMZ-induced signature 11) and hypermutation status.",
		ref:         func(s *CaseSummary) *string { return &s.MutationalSignatures },
	},
	{
		Name:        "methylation",
		Label:       "Methylation and epigenomics",
		Description: "MGMT promoter methylation, G-CIMP status and any epigenomic remodeling such as G-CIMP erosion.",
		ref:         func(s *CaseSummary) *string { return &s.Methylation },
	},
	{
		Name:        "treatment_history",
		Label:       "Treatment history",
		Description: "Chemotherapy, radiotherapy and surgical treatments in order, with dates or intervals when available.",
		ref:         func(s *CaseSummary) *string { return &s.TreatmentHistory },
	},
	{
		Name:        "summary",
		Label:       "Summary",
		Description: "Two or three sentences synthesizing the whole case.",
		ref:         func(s *CaseSummary) *string { return &s.Summary },
	},
	{
		Name:        "treatment_recommendation",
		Label:       "Treatment recommendation",
		Description: "Treatment options supported by the molecular profile and history, with the evidence level for each.",
		ref:         func(s *CaseSummary) *string { return &s.TreatmentRecommendation },
	},
	{
		Name:        "clinical_trial_recommendation",
		Label:       "Clinical trial recommendation",
		Description: "Kinds of clinical trials the patient could be eligible for, given the molecular profile.",
		ref:         func(s *CaseSummary) *string { return &s.ClinicalTrialRecommendation },
	},
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(err)
	}
	return v
}

// Value returns the field named name, or "" for an unknown name.
func (s CaseSummary) Value(name string) string {
	for _, f := range Fields {
		if f.Name == name {
			return *f.ref(&s)
		}
	}
	return ""
}

// Values returns every field value in declaration order.
func (s CaseSummary) Values() []string {
	out := make([]string, len(Fields))
	for i, f := range Fields {
		out[i] = *f.ref(&s)
	}
	return out
}

// Validate checks that every field holds more than whitespace.
func (s CaseSummary) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("%w: %w", ErrSchema, err)
	}
	return nil
}

// Decode parses a model response. Every field must be present, be a string,
// and be non-blank.
func Decode(raw []byte) (CaseSummary, error) {
	if !gjson.ValidBytes(raw) {
		return CaseSummary{}, fmt.Errorf("%w: invalid JSON", ErrSchema)
	}
	root := gjson.ParseBytes(raw)
	if !root.IsObject() {
		return CaseSummary{}, fmt.Errorf("%w: expected a JSON object, got %s", ErrSchema, root.Type)
	}

	var s CaseSummary
	for _, f := range Fields {
		v := root.Get(f.Name)
		if !v.Exists() {
			return CaseSummary{}, fmt.Errorf("%w: missing field %q", ErrSchema, f.Name)
		}
		if v.Type != gjson.String {
			return CaseSummary{}, fmt.Errorf("%w: field %q is %s, want string", ErrSchema, f.Name, v.Type)
		}
		*f.ref(&s) = v.String()
	}
	if err := s.Validate(); err != nil {
		return CaseSummary{}, err
	}
	return s, nil
}

// JSONSchema returns the strict JSON schema sent with the completion request.
func JSONSchema() map[string]any {
	properties := make(map[string]any, len(Fields))
	required := make([]string, 0, len(Fields))
	for _, f := range Fields {
		properties[f.Name] = map[string]any{
			"type":        "string",
			"title":       f.Label,
			"description": f.Description,
		}
		required = append(required, f.Name)
	}
	return map[string]any{
		"type":                 "object",
		"title":                SchemaName,
		"description":          SchemaDescription,
		"properties":           properties,
		"required":             required,
		"additionalProperties": false,
	}
}
