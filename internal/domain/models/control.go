package models

import "time"

// Control is a mitigating control that forces one driver feature to a safe value.
type Control struct {
	ID            string  `yaml:"id" json:"id"`
	Name          string  `yaml:"name" json:"name"`
	DriverFeature string  `yaml:"driver_feature" json:"driver_feature"`
	SafeValue     float64 `yaml:"safe_value" json:"safe_value"`
	Description   string  `yaml:"description,omitempty" json:"description,omitempty"`
}

// VulnerabilityRecord is a raw CVE observation joined with its asset and exploit intelligence.
type VulnerabilityRecord struct {
	ID                  uint       `gorm:"primaryKey" json:"id"`
	CVEID               string     `gorm:"column:cve_id;index" json:"cve_id"`
	Product             string     `gorm:"column:product;index" json:"product"`
	Vendor              string     `gorm:"column:vendor" json:"vendor"`
	BaseScore           *float64   `gorm:"column:base_score" json:"base_score,omitempty"`
	ExploitabilityScore *float64   `gorm:"column:exploitability_score" json:"exploitability_score,omitempty"`
	ImpactScore         *float64   `gorm:"column:impact_score" json:"impact_score,omitempty"`
	ExploitCount        *float64   `gorm:"column:exploit_count" json:"exploit_count,omitempty"`
	AttackVector        string     `gorm:"column:attack_vector" json:"attack_vector"`
	PublishedAt         *time.Time `gorm:"column:cve_published_date" json:"cve_published_date,omitempty"`
	EPSS                *float64   `gorm:"column:epss" json:"epss,omitempty"`
}

// TableName pins the gorm table name.
func (VulnerabilityRecord) TableName() string {
	return "vulnerabilities"
}
