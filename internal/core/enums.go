package core

import "strings"

// Closed value sets for the categorical buyer fields.
var (
	Cities        = []string{"Chandigarh", "Mohali", "Zirakpur", "Panchkula", "Other"}
	PropertyTypes = []string{"Apartment", "Villa", "Plot", "Office", "Retail"}
	BHKs          = []string{"1", "2", "3", "4", "Studio"}
	Purposes      = []string{"Buy", "Rent"}
	Timelines     = []string{"0-3m", "3-6m", ">6m", "Exploring"}
	Sources       = []string{"Website", "Referral", "Walk-in", "Call", "Other"}
	Statuses      = []string{"New", "Qualified", "Contacted", "Visited", "Negotiation", "Converted", "Dropped"}
)

// DefaultStatus is applied when a new buyer has no status.
const DefaultStatus = "New"

// enumSets is keyed by the json field name used in validate:"enum=..." tags.
var enumSets = map[string][]string{
	"city":         Cities,
	"propertyType": PropertyTypes,
	"bhk":          BHKs,
	"purpose":      Purposes,
	"timeline":     Timelines,
	"source":       Sources,
	"status":       Statuses,
}

// requiresBHK reports whether a property type must carry a bedroom code.
func requiresBHK(propertyType string) bool {
	return propertyType == "Apartment" || propertyType == "Villa"
}

func inSet(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

// EnumValues returns the allowed values for a categorical field, or nil.
func EnumValues(field string) []string {
	return enumSets[field]
}

func enumList(field string) string {
	return strings.Join(enumSets[field], ", ")
}
