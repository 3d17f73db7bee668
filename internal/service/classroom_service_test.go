package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amrnabil/educenter-api/internal/models"
	appErrors "github.com/amrnabil/educenter-api/pkg/errors"
)

type mockClassroomCRUD struct {
	rooms map[string]*models.Classroom
}

func (m *mockClassroomCRUD) List(ctx context.Context) ([]models.Classroom, error) {
	out := make([]models.Classroom, 0, len(m.rooms))
	for _, room := range m.rooms {
		out = append(out, *room)
	}
	return out, nil
}

func (m *mockClassroomCRUD) FindByID(ctx context.Context, id string) (*models.Classroom, error) {
	room, ok := m.rooms[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return room, nil
}

func (m *mockClassroomCRUD) Create(ctx context.Context, classroom *models.Classroom) error {
	classroom.ID = "room-new"
	m.rooms[classroom.ID] = classroom
	return nil
}

func (m *mockClassroomCRUD) Update(ctx context.Context, classroom *models.Classroom) error {
	if _, ok := m.rooms[classroom.ID]; !ok {
		return sql.ErrNoRows
	}
	m.rooms[classroom.ID] = classroom
	return nil
}

func (m *mockClassroomCRUD) Delete(ctx context.Context, id string) error {
	if _, ok := m.rooms[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.rooms, id)
	return nil
}

func TestClassroomCreate(t *testing.T) {
	repo := &mockClassroomCRUD{rooms: map[string]*models.Classroom{}}
	svc := NewClassroomService(repo, nil, nil)

	room, err := svc.Create(context.Background(), ClassroomRequest{Name: "Lab A", Capacity: 30})
	require.NoError(t, err)
	assert.Equal(t, "room-new", room.ID)
	assert.Equal(t, 30, room.Capacity)
}

func TestClassroomCreateZeroCapacity(t *testing.T) {
	svc := NewClassroomService(&mockClassroomCRUD{rooms: map[string]*models.Classroom{}}, nil, nil)

	_, err := svc.Create(context.Background(), ClassroomRequest{Name: "Lab A", Capacity: 0})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestClassroomUpdateMissing(t *testing.T) {
	svc := NewClassroomService(&mockClassroomCRUD{rooms: map[string]*models.Classroom{}}, nil, nil)

	_, err := svc.Update(context.Background(), "room-404", ClassroomRequest{Name: "Lab A", Capacity: 25})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestClassroomDeleteMissing(t *testing.T) {
	svc := NewClassroomService(&mockClassroomCRUD{rooms: map[string]*models.Classroom{}}, nil, nil)

	err := svc.Delete(context.Background(), "room-404")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}
