package tracker

import (
	"errors"
	"reflect"
	"strconv"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/cardtrack/cardtrack/internal/util"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Item is the record returned by the item-info endpoint. Every attribute
// other than the id and name is optional and decodes to nil when absent.
type Item struct {
	ID         *int64   `json:"id" validate:"required"`
	Name       string   `json:"name" validate:"required"`
	SetName    *string  `json:"set_name"`
	Category   *string  `json:"category" validate:"omitempty,oneof=CARD PACK BOX"`
	Language   *string  `json:"language"`
	Qualifiers []string `json:"qualifiers" validate:"omitempty,dive,oneof=UNLIMITED FIRST_EDITION NON_HOLO REVERSE_HOLO CRYSTAL"`
	Details    *string  `json:"details"`

	PurchaseDate  *string `json:"purchase_date" validate:"omitempty,datetime=2006-01-02"`
	PurchasePrice *int64  `json:"purchase_price"`
	Status        *string `json:"status" validate:"omitempty,oneof=CLOSED STORAGE LISTED VAULT SUBMITTED ORDER"`
	Intent        *string `json:"intent" validate:"omitempty,oneof=KEEP SELL GRADE TBD"`
	ImportFee     *int64  `json:"import_fee"`

	ListPrice     *float64 `json:"list_price"`
	ListType      *string  `json:"list_type" validate:"omitempty,oneof=NO_LIST FIXED AUCTION"`
	ListDate      *string  `json:"list_date" validate:"omitempty,datetime=2006-01-02"`
	SaleTotal     *float64 `json:"sale_total"`
	SaleDate      *string  `json:"sale_date" validate:"omitempty,datetime=2006-01-02"`
	Shipping      *float64 `json:"shipping"`
	SaleFee       *float64 `json:"sale_fee"`
	USDToJPYRate  *float64 `json:"usd_to_jpy_rate" validate:"omitempty,gt=0"`
	GroupDiscount *bool    `json:"group_discount"`
	ObjectVariant *string  `json:"object_variant" validate:"omitempty,oneof=STANDARD GROUP_PURCHASE GROUP_SALE"`
	AuditTarget   *bool    `json:"audit_target"`

	TotalGradingFees *int64   `json:"total_grading_fees"`
	TotalCost        *int64   `json:"total_cost"`
	GradingCompany   *string  `json:"grading_company" validate:"omitempty,oneof=RAW PSA CGC BGS"`
	Grade            *float64 `json:"grade" validate:"omitempty,gte=0,lte=10"`
	Cert             *int64   `json:"cert"`
	TotalFees        *float64 `json:"total_fees"`
	ReturnUSD        *float64 `json:"return_usd"`
	ReturnJPY        *int64   `json:"return_jpy"`
	NetJPY           *int64   `json:"net_jpy"`
	NetPercent       *float64 `json:"net_percent"`
}

// Validate checks the decoded payload against the item schema.
func (i *Item) Validate() error {
	return validate.Struct(i)
}

// Sanitize clears every optional attribute that fails validation so it
// renders empty, and returns the json names of the cleared attributes.
// A missing id or name is the only error.
func (i *Item) Sanitize() ([]string, error) {
	err := validate.Struct(i)
	var verrs validator.ValidationErrors
	if err == nil || !errors.As(err, &verrs) {
		return nil, err
	}
	v := reflect.ValueOf(i).Elem()
	var cleared []string
	for _, fe := range verrs {
		name, _, _ := strings.Cut(fe.StructField(), "[")
		if name == "ID" || name == "Name" {
			return nil, err
		}
		f := v.FieldByName(name)
		if !f.IsValid() || f.IsZero() {
			continue
		}
		f.SetZero()
		sf, _ := v.Type().FieldByName(name)
		tag, _, _ := strings.Cut(sf.Tag.Get("json"), ",")
		cleared = append(cleared, tag)
	}
	return cleared, nil
}

// Attribute names, in the column order used by the submission table.
const (
	FieldName             = "name"
	FieldSetName          = "set_name"
	FieldCategory         = "category"
	FieldLanguage         = "language"
	FieldQualifiers       = "qualifiers"
	FieldDetails          = "details"
	FieldPurchaseDate     = "purchase_date"
	FieldPurchasePrice    = "purchase_price"
	FieldStatus           = "status"
	FieldIntent           = "intent"
	FieldImportFee        = "import_fee"
	FieldListPrice        = "list_price"
	FieldListType         = "list_type"
	FieldListDate         = "list_date"
	FieldSaleTotal        = "sale_total"
	FieldSaleDate         = "sale_date"
	FieldShipping         = "shipping"
	FieldSaleFee          = "sale_fee"
	FieldUSDToJPYRate     = "usd_to_jpy_rate"
	FieldGroupDiscount    = "group_discount"
	FieldObjectVariant    = "object_variant"
	FieldAuditTarget      = "audit_target"
	FieldTotalGradingFees = "total_grading_fees"
	FieldTotalCost        = "total_cost"
	FieldGradingCompany   = "grading_company"
	FieldGrade            = "grade"
	FieldCert             = "cert"
	FieldTotalFees        = "total_fees"
	FieldReturnUSD        = "return_usd"
	FieldReturnJPY        = "return_jpy"
	FieldNetJPY           = "net_jpy"
	FieldNetPercent       = "net_percent"
)

// Fields lists every attribute Attributes produces.
var Fields = []string{
	FieldName, FieldSetName, FieldCategory, FieldLanguage, FieldQualifiers,
	FieldDetails, FieldPurchaseDate, FieldPurchasePrice, FieldStatus,
	FieldIntent, FieldImportFee, FieldListPrice, FieldListType, FieldListDate,
	FieldSaleTotal, FieldSaleDate, FieldShipping, FieldSaleFee,
	FieldUSDToJPYRate, FieldGroupDiscount, FieldObjectVariant,
	FieldAuditTarget, FieldTotalGradingFees, FieldTotalCost,
	FieldGradingCompany, FieldGrade, FieldCert, FieldTotalFees,
	FieldReturnUSD, FieldReturnJPY, FieldNetJPY, FieldNetPercent,
}

// SubmissionColumns are the attributes shown next to each identifier in
// the submission table.
var SubmissionColumns = []string{
	FieldName, FieldSetName, FieldCategory, FieldLanguage, FieldQualifiers,
	FieldPurchaseDate, FieldPurchasePrice, FieldStatus, FieldIntent,
	FieldGradingCompany, FieldGrade, FieldTotalCost,
}

// BlankAttributes returns every field mapped to "".
func BlankAttributes() map[string]string {
	attrs := make(map[string]string, len(Fields))
	for _, f := range Fields {
		attrs[f] = ""
	}
	return attrs
}

// Attributes renders the item as display strings keyed by field name.
// Absent values are always "".
func (i *Item) Attributes() map[string]string {
	if i == nil {
		return BlankAttributes()
	}
	return map[string]string{
		FieldName:             i.Name,
		FieldSetName:          util.StringValue(i.SetName),
		FieldCategory:         util.StringValue(i.Category),
		FieldLanguage:         util.StringValue(i.Language),
		FieldQualifiers:       strings.Join(i.Qualifiers, ", "),
		FieldDetails:          util.StringValue(i.Details),
		FieldPurchaseDate:     util.StringValue(i.PurchaseDate),
		FieldPurchasePrice:    yen(i.PurchasePrice),
		FieldStatus:           util.StringValue(i.Status),
		FieldIntent:           util.StringValue(i.Intent),
		FieldImportFee:        yen(i.ImportFee),
		FieldListPrice:        dollars(i.ListPrice),
		FieldListType:         util.StringValue(i.ListType),
		FieldListDate:         util.StringValue(i.ListDate),
		FieldSaleTotal:        dollars(i.SaleTotal),
		FieldSaleDate:         util.StringValue(i.SaleDate),
		FieldShipping:         dollars(i.Shipping),
		FieldSaleFee:          dollars(i.SaleFee),
		FieldUSDToJPYRate:     float(i.USDToJPYRate),
		FieldGroupDiscount:    boolean(i.GroupDiscount),
		FieldObjectVariant:    util.StringValue(i.ObjectVariant),
		FieldAuditTarget:      boolean(i.AuditTarget),
		FieldTotalGradingFees: yen(i.TotalGradingFees),
		FieldTotalCost:        yen(i.TotalCost),
		FieldGradingCompany:   util.StringValue(i.GradingCompany),
		FieldGrade:            float(i.Grade),
		FieldCert:             integer(i.Cert),
		FieldTotalFees:        dollars(i.TotalFees),
		FieldReturnUSD:        dollars(i.ReturnUSD),
		FieldReturnJPY:        yen(i.ReturnJPY),
		FieldNetJPY:           yen(i.NetJPY),
		FieldNetPercent:       float(i.NetPercent),
	}
}

func integer(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}

func float(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func boolean(v *bool) string {
	if v == nil {
		return ""
	}
	if *v {
		return "Yes"
	}
	return "No"
}

// yen formats whole yen, e.g. ¥1,235.
func yen(v *int64) string {
	if v == nil {
		return ""
	}
	return money.New(*v, money.JPY).Display()
}

// dollars formats to the cent, e.g. $1,234.56.
func dollars(v *float64) string {
	if v == nil {
		return ""
	}
	return money.NewFromFloat(*v, money.USD).Display()
}
