package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

const sqlListTargetGroups = `
SELECT id, name
FROM target_groups
ORDER BY name
`

// ListTargetGroups retrieves the audience segment registry
func (s *Store) ListTargetGroups(ctx context.Context) ([]TargetGroup, error) {
	var groups []TargetGroup
	err := s.db.SelectContext(ctx, &groups, sqlListTargetGroups)
	if err != nil {
		s.logger.Error(ctx, "failed to list target groups", err)
		return nil, fmt.Errorf("failed to list target groups: %w", err)
	}
	return groups, nil
}

const sqlCountTargetGroupsByIDs = `
SELECT COUNT(*) FROM target_groups WHERE id = ANY($1)
`

// CountTargetGroupsByIDs returns how many of the given IDs exist in the registry
func (s *Store) CountTargetGroupsByIDs(ctx context.Context, groupIDs UUIDArray) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count, sqlCountTargetGroupsByIDs, groupIDs)
	if err != nil {
		s.logger.Error(ctx, "failed to count target groups", err)
		return 0, fmt.Errorf("failed to count target groups: %w", err)
	}
	return count, nil
}

const sqlCreateTargetGroup = `
INSERT INTO target_groups (name)
VALUES ($1)
RETURNING id, name
`

// CreateTargetGroup adds an audience segment to the registry
func (s *Store) CreateTargetGroup(ctx context.Context, name string) (TargetGroup, error) {
	var group TargetGroup
	err := s.db.GetContext(ctx, &group, sqlCreateTargetGroup, name)
	if err != nil {
		s.logger.Error(ctx, "failed to create target group", err)
		return TargetGroup{}, fmt.Errorf("failed to create target group: %w", err)
	}
	return group, nil
}

// TargetGroupsExist reports whether every given ID is registered. The count
// query matches distinct rows, so repeated IDs are collapsed first.
func (s *Store) TargetGroupsExist(ctx context.Context, groupIDs []uuid.UUID) (bool, error) {
	if len(groupIDs) == 0 {
		return true, nil
	}
	seen := make(map[uuid.UUID]struct{}, len(groupIDs))
	unique := make([]uuid.UUID, 0, len(groupIDs))
	for _, id := range groupIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	count, err := s.CountTargetGroupsByIDs(ctx, UUIDArray(unique))
	if err != nil {
		return false, err
	}
	return count == len(unique), nil
}
