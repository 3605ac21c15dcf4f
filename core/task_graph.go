package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/smartystreets/logging"
)

type Task struct {
	Name      string
	DependsOn []string
	Action    func(ctx context.Context) error
}

// CycleError names the tasks whose dependencies can never be satisfied.
type CycleError struct {
	Cycle []string
}

func (this *CycleError) Error() string {
	return fmt.Sprintf("task dependency cycle detected: %s", strings.Join(this.Cycle, " -> "))
}

var (
	ErrUnknownTask   = errors.New("unknown task")
	ErrDuplicateTask = errors.New("task already registered")
)

// TaskGraph runs named tasks after the tasks they depend on.
type TaskGraph struct {
	logger *logging.Logger
	tasks  map[string]Task
	order  []string
}

func NewTaskGraph() *TaskGraph {
	return &TaskGraph{tasks: make(map[string]Task)}
}

func (this *TaskGraph) Register(task Task) error {
	if task.Name == "" || task.Action == nil {
		return fmt.Errorf("task must have a name and an action: %q", task.Name)
	}
	if _, found := this.tasks[task.Name]; found {
		return fmt.Errorf("%w: %s", ErrDuplicateTask, task.Name)
	}
	this.tasks[task.Name] = task
	this.order = append(this.order, task.Name)
	return nil
}

// Plan returns the requested tasks and everything they depend on, each once,
// dependencies first. Ties keep registration order.
func (this *TaskGraph) Plan(names ...string) ([]string, error) {
	included, err := this.closure(names)
	if err != nil {
		return nil, err
	}

	inDegree := make(map[string]int, len(included))
	dependents := make(map[string][]string, len(included))
	var nodes []string
	for _, name := range this.order {
		if !included[name] {
			continue
		}
		nodes = append(nodes, name)
		inDegree[name] = len(this.tasks[name].DependsOn)
		for _, dependency := range this.tasks[name].DependsOn {
			dependents[dependency] = append(dependents[dependency], name)
		}
	}

	var queue, result []string
	for _, node := range nodes {
		if inDegree[node] == 0 {
			queue = append(queue, node)
		}
	}
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		result = append(result, node)
		for _, dependent := range dependents[node] {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				queue = append(queue, dependent)
			}
		}
	}

	if len(result) != len(nodes) {
		var cycle []string
		for _, node := range nodes {
			if inDegree[node] > 0 {
				cycle = append(cycle, node)
			}
		}
		return nil, &CycleError{Cycle: cycle}
	}
	return result, nil
}

func (this *TaskGraph) closure(names []string) (map[string]bool, error) {
	included := make(map[string]bool)
	pending := append([]string(nil), names...)
	for len(pending) > 0 {
		name := pending[len(pending)-1]
		pending = pending[:len(pending)-1]
		if included[name] {
			continue
		}
		task, found := this.tasks[name]
		if !found {
			return nil, fmt.Errorf("%w: %s", ErrUnknownTask, name)
		}
		included[name] = true
		pending = append(pending, task.DependsOn...)
	}
	return included, nil
}

// Run executes the plan for names. The first failure stops the run.
func (this *TaskGraph) Run(ctx context.Context, names ...string) error {
	plan, err := this.Plan(names...)
	if err != nil {
		return err
	}
	for _, name := range plan {
		if err = ctx.Err(); err != nil {
			return err
		}
		this.logger.Printf("Running task %s", name)
		if err = this.tasks[name].Action(ctx); err != nil {
			return fmt.Errorf("task %s: %w", name, err)
		}
	}
	return nil
}
