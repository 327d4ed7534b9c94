package models

// Worker - запись справочника сотрудников.
type Worker struct {
	ID   int64  `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"`
}
