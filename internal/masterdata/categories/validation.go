package categories

import (
	"context"
	"fmt"
	"strings"

	"github.com/tillpoint/tillpoint/internal/shared"
)

func normalize(in Input) (Input, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return in, fmt.Errorf("%w: category name is required", shared.ErrValidation)
	}
	source := in.Slug
	if strings.TrimSpace(source) == "" {
		source = in.Name
	}
	in.Slug = shared.Slugify(source)
	if in.Slug == "" {
		return in, fmt.Errorf("%w: category name must contain letters or digits", shared.ErrValidation)
	}
	if in.ParentID != nil && strings.TrimSpace(*in.ParentID) == "" {
		in.ParentID = nil
	}
	return in, nil
}

// checkParent rejects a parent that is missing or that would put id inside
// its own subtree. Ancestors are walked with a visited set so corrupted
// data cannot loop forever.
func (s *Service) checkParent(ctx context.Context, storeID, id string, parentID *string) error {
	if parentID == nil {
		return nil
	}
	if *parentID == id {
		return fmt.Errorf("%w: a category cannot be its own parent", shared.ErrValidation)
	}
	visited := map[string]struct{}{}
	current := *parentID
	for {
		if current == id {
			return fmt.Errorf("%w: parent would create a cycle", shared.ErrValidation)
		}
		if _, seen := visited[current]; seen {
			return fmt.Errorf("%w: category tree already contains a cycle at %s", shared.ErrValidation, current)
		}
		visited[current] = struct{}{}
		next, err := s.repo.ParentOf(ctx, storeID, current)
		if err != nil {
			if current == *parentID && shared.ErrorKind(err) == shared.KindNotFound {
				return fmt.Errorf("%w: parent category %s not found", shared.ErrValidation, current)
			}
			return err
		}
		if next == nil {
			return nil
		}
		current = *next
	}
}
