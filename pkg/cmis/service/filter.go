package service

import (
	"strings"

	"github.com/tendant/simple-cmis/pkg/cmis"
	"github.com/tendant/simple-cmis/pkg/cmis/store"
	"github.com/tendant/simple-cmis/pkg/cmis/typedef"
)

// alwaysReturned are kept by every property filter.
var alwaysReturned = []string{cmis.PropObjectID, cmis.PropObjectTypeID, cmis.PropBaseTypeID}

// applyFilter narrows the properties of obj to the comma-separated query
// names of filter. An empty filter or "*" keeps everything.
func applyFilter(types *typedef.Registry, obj *store.Object, filter string) error {
	filter = strings.TrimSpace(filter)
	if filter == "" || filter == "*" {
		return nil
	}
	t, err := types.GetTypeByID(obj.TypeID)
	if err != nil {
		return err
	}
	keep := make(map[string]bool, len(alwaysReturned))
	for _, id := range alwaysReturned {
		keep[id] = true
	}
	for _, name := range strings.Split(filter, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		d, ok := t.PropertyByQueryName(name)
		if !ok {
			return cmis.Errorf(cmis.ErrInvalidArgument, "filter names unknown property %q", name)
		}
		keep[d.ID] = true
	}
	for id := range obj.Properties {
		if !keep[id] {
			delete(obj.Properties, id)
		}
	}
	return nil
}
