package directory

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"fieldcrew/internal/models"
)

// Directory - неизменяемый справочник бригады: сотрудники и администраторы.
// Загружается один раз при старте и передаётся зависимостям по ссылке.
type Directory struct {
	workers  []models.Worker
	names    map[int64]string
	byName   map[string]int64
	admins   map[int64]struct{}
	adminIDs []int64
}

type rosterFile struct {
	Workers []models.Worker `yaml:"workers"`
	Admins  []int64         `yaml:"admins"`
}

// Load читает YAML-файл состава бригады. extraAdmins (из ADMIN_IDS) добавляются к списку.
func Load(path string, extraAdmins []int64) (*Directory, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("не удалось прочитать файл бригады %s: %w", path, err)
	}
	var roster rosterFile
	if err := yaml.Unmarshal(raw, &roster); err != nil {
		return nil, fmt.Errorf("не удалось разобрать файл бригады %s: %w", path, err)
	}
	return New(roster.Workers, append(roster.Admins, extraAdmins...))
}

// New строит справочник. Повтор id или имени сотрудника - ошибка:
// имя пишется в таблицу и должно однозначно указывать на человека.
func New(workers []models.Worker, admins []int64) (*Directory, error) {
	d := &Directory{
		names:  make(map[int64]string, len(workers)),
		byName: make(map[string]int64, len(workers)),
		admins: make(map[int64]struct{}, len(admins)),
	}
	for _, w := range workers {
		if w.ID == 0 || w.Name == "" {
			return nil, fmt.Errorf("сотрудник без id или имени: %+v", w)
		}
		if _, dup := d.names[w.ID]; dup {
			return nil, fmt.Errorf("повторный id сотрудника %d", w.ID)
		}
		if _, dup := d.byName[w.Name]; dup {
			return nil, fmt.Errorf("повторное имя сотрудника %q", w.Name)
		}
		d.names[w.ID] = w.Name
		d.byName[w.Name] = w.ID
		d.workers = append(d.workers, w)
	}
	for _, id := range admins {
		if _, dup := d.admins[id]; dup {
			continue
		}
		d.admins[id] = struct{}{}
		d.adminIDs = append(d.adminIDs, id)
	}
	return d, nil
}

// Workers возвращает копию списка в порядке файла.
func (d *Directory) Workers() []models.Worker {
	out := make([]models.Worker, len(d.workers))
	copy(out, d.workers)
	return out
}

func (d *Directory) Name(id int64) (string, bool) {
	name, ok := d.names[id]
	return name, ok
}

// Lookup ищет сотрудника по отображаемому имени.
func (d *Directory) Lookup(name string) (int64, bool) {
	id, ok := d.byName[name]
	return id, ok
}

func (d *Directory) IsWorker(id int64) bool {
	_, ok := d.names[id]
	return ok
}

func (d *Directory) IsAdmin(id int64) bool {
	_, ok := d.admins[id]
	return ok
}

func (d *Directory) Admins() []int64 {
	out := make([]int64, len(d.adminIDs))
	copy(out, d.adminIDs)
	return out
}
