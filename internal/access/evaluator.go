package access

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"

	"TodolistBot/internal/database"
	"TodolistBot/internal/database/models"
)

// Operation is what a caller wants to do with an entity.
type Operation int

const (
	OpRetrieve Operation = iota
	OpList
	OpCreate
	OpUpdate
	OpDelete
)

// Safe reports whether the operation only reads.
func (o Operation) Safe() bool {
	return o == OpRetrieve || o == OpList
}

func (o Operation) String() string {
	switch o {
	case OpRetrieve:
		return "retrieve"
	case OpList:
		return "list"
	case OpCreate:
		return "create"
	case OpUpdate:
		return "update"
	case OpDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// OperationFromMethod classifies an HTTP method. GET, HEAD and OPTIONS are
// reads; everything else is treated as an update or delete.
func OperationFromMethod(method string) Operation {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return OpRetrieve
	case http.MethodPost:
		return OpCreate
	case http.MethodDelete:
		return OpDelete
	default:
		return OpUpdate
	}
}

// Kind names the entity types guarded by the evaluator.
type Kind int

const (
	KindBoard Kind = iota
	KindCategory
	KindGoal
	KindComment
)

func (k Kind) String() string {
	switch k {
	case KindBoard:
		return "board"
	case KindCategory:
		return "category"
	case KindGoal:
		return "goal"
	case KindComment:
		return "comment"
	default:
		return "unknown"
	}
}

// Target identifies the entity an operation applies to.
type Target struct {
	Kind Kind
	ID   uint
}

func Board(id uint) Target    { return Target{Kind: KindBoard, ID: id} }
func Category(id uint) Target { return Target{Kind: KindCategory, ID: id} }
func Goal(id uint) Target     { return Target{Kind: KindGoal, ID: id} }
func Comment(id uint) Target  { return Target{Kind: KindComment, ID: id} }

// Decision is the outcome of Authorize.
type Decision bool

const (
	Allow Decision = true
	Deny  Decision = false
)

// BoardResolver maps an entity id to the id of the board that owns it.
// It must return database.ErrNotFound when the entity does not exist.
type BoardResolver func(ctx context.Context, id uint) (uint, error)

type policy struct {
	resolve BoardResolver
	write   []models.Role
}

var (
	boardWriteRoles = []models.Role{models.RoleOwner}
	entryWriteRoles = []models.Role{models.RoleOwner, models.RoleWriter}
)

// Evaluator decides whether a user may perform an operation on an entity.
// Reads need any membership on the owning board, writes need owner or writer,
// and writes on the board itself need owner.
type Evaluator struct {
	registry *Registry
	policies map[Kind]policy
}

type boardResolvers interface {
	CategoryBoardID(ctx context.Context, id uint) (uint, error)
	GoalBoardID(ctx context.Context, id uint) (uint, error)
	CommentBoardID(ctx context.Context, id uint) (uint, error)
}

func NewEvaluator(registry *Registry, resolvers boardResolvers) *Evaluator {
	return &Evaluator{
		registry: registry,
		policies: map[Kind]policy{
			KindBoard:    {resolve: resolveSelf, write: boardWriteRoles},
			KindCategory: {resolve: resolvers.CategoryBoardID, write: entryWriteRoles},
			KindGoal:     {resolve: resolvers.GoalBoardID, write: entryWriteRoles},
			KindComment:  {resolve: resolvers.CommentBoardID, write: entryWriteRoles},
		},
	}
}

func resolveSelf(_ context.Context, id uint) (uint, error) {
	return id, nil
}

// Authorize resolves the owning board of target and checks the role the
// operation needs. Missing entities and anonymous users are denied.
func (e *Evaluator) Authorize(ctx context.Context, userID uint, op Operation, target Target) (Decision, error) {
	if userID == 0 {
		return Deny, nil
	}
	p, ok := e.policies[target.Kind]
	if !ok {
		return Deny, fmt.Errorf("no policy for %s", target.Kind)
	}

	boardID, err := p.resolve(ctx, target.ID)
	if errors.Is(err, database.ErrNotFound) {
		return Deny, nil
	}
	if err != nil {
		return Deny, fmt.Errorf("resolve %s %d: %w", target.Kind, target.ID, err)
	}

	var roles []models.Role
	if !op.Safe() {
		roles = p.write
	}
	ok, err = e.registry.HasRole(ctx, userID, boardID, roles...)
	if err != nil {
		return Deny, err
	}
	return Decision(ok), nil
}

// Require is Authorize folded into a single error: nil on allow,
// ErrPermissionDenied on deny.
func (e *Evaluator) Require(ctx context.Context, userID uint, op Operation, target Target) error {
	decision, err := e.Authorize(ctx, userID, op, target)
	if err != nil {
		return err
	}
	if decision == Deny {
		return ErrPermissionDenied
	}
	return nil
}

// RequireBoardRole checks a role on a board directly. It is used when the
// target entity does not exist yet, e.g. a category about to be created.
func (e *Evaluator) RequireBoardRole(ctx context.Context, userID, boardID uint, roles ...models.Role) error {
	ok, err := e.registry.HasRole(ctx, userID, boardID, roles...)
	if err != nil {
		return err
	}
	if !ok {
		return ErrPermissionDenied
	}
	return nil
}

// WriteRoles returns a copy of the roles required for unsafe operations on kind.
func WriteRoles(kind Kind) []models.Role {
	if kind == KindBoard {
		return slices.Clone(boardWriteRoles)
	}
	return slices.Clone(entryWriteRoles)
}
