package models

type Location struct {
	ID       int     `json:"id" db:"id"`
	Name     string  `json:"name" db:"name"`
	Building *string `json:"building" db:"building"`
	Details  *string `json:"details" db:"details"`
}

type AssetCategory struct {
	ID    int    `json:"id" db:"id"`
	Code  string `json:"code" db:"code"`
	Label string `json:"label" db:"label"`
}
