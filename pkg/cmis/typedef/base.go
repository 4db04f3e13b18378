package typedef

import "github.com/tendant/simple-cmis/pkg/cmis"

func systemProp(id string, pt cmis.PropertyType, upd cmis.Updatability, required, orderable bool) *PropertyDefinition {
	d := &PropertyDefinition{
		ID:           id,
		PropertyType: pt,
		Updatability: upd,
		Required:     required,
		Queryable:    true,
		Orderable:    orderable,
	}
	d.applyDefaults()
	return d
}

func commonProps() []*PropertyDefinition {
	ro := cmis.UpdatabilityReadOnly
	return []*PropertyDefinition{
		systemProp(cmis.PropName, cmis.PropertyTypeString, cmis.UpdatabilityReadWrite, true, true),
		systemProp(cmis.PropDescription, cmis.PropertyTypeString, cmis.UpdatabilityReadWrite, false, true),
		systemProp(cmis.PropObjectID, cmis.PropertyTypeID, ro, false, true),
		systemProp(cmis.PropBaseTypeID, cmis.PropertyTypeID, ro, false, true),
		systemProp(cmis.PropObjectTypeID, cmis.PropertyTypeID, cmis.UpdatabilityOnCreate, true, true),
		systemProp(cmis.PropCreatedBy, cmis.PropertyTypeString, ro, false, true),
		systemProp(cmis.PropCreationDate, cmis.PropertyTypeDateTime, ro, false, true),
		systemProp(cmis.PropLastModifiedBy, cmis.PropertyTypeString, ro, false, true),
		systemProp(cmis.PropLastModificationDate, cmis.PropertyTypeDateTime, ro, false, true),
		systemProp(cmis.PropChangeToken, cmis.PropertyTypeString, ro, false, false),
	}
}

func documentProps() []*PropertyDefinition {
	ro := cmis.UpdatabilityReadOnly
	return append(commonProps(),
		systemProp(cmis.PropIsImmutable, cmis.PropertyTypeBoolean, ro, false, false),
		systemProp(cmis.PropIsLatestVersion, cmis.PropertyTypeBoolean, ro, false, false),
		systemProp(cmis.PropIsMajorVersion, cmis.PropertyTypeBoolean, ro, false, false),
		systemProp(cmis.PropIsLatestMajorVersion, cmis.PropertyTypeBoolean, ro, false, false),
		systemProp(cmis.PropIsPrivateWorkingCopy, cmis.PropertyTypeBoolean, ro, false, false),
		systemProp(cmis.PropVersionLabel, cmis.PropertyTypeString, ro, false, true),
		systemProp(cmis.PropVersionSeriesID, cmis.PropertyTypeID, ro, false, false),
		systemProp(cmis.PropIsVersionSeriesCheckedOut, cmis.PropertyTypeBoolean, ro, false, false),
		systemProp(cmis.PropVersionSeriesCheckedOutBy, cmis.PropertyTypeString, ro, false, false),
		systemProp(cmis.PropVersionSeriesCheckedOutID, cmis.PropertyTypeID, ro, false, false),
		systemProp(cmis.PropCheckinComment, cmis.PropertyTypeString, ro, false, false),
		systemProp(cmis.PropContentStreamLength, cmis.PropertyTypeInteger, ro, false, true),
		systemProp(cmis.PropContentStreamMimeType, cmis.PropertyTypeString, ro, false, true),
		systemProp(cmis.PropContentStreamFileName, cmis.PropertyTypeString, ro, false, true),
		systemProp(cmis.PropContentStreamID, cmis.PropertyTypeID, ro, false, false),
	)
}

func folderProps() []*PropertyDefinition {
	ro := cmis.UpdatabilityReadOnly
	allowed := systemProp(cmis.PropAllowedChildObjectTypes, cmis.PropertyTypeID, ro, false, false)
	allowed.Cardinality = cmis.CardinalityMulti
	return append(commonProps(),
		systemProp(cmis.PropParentID, cmis.PropertyTypeID, ro, false, false),
		systemProp(cmis.PropPath, cmis.PropertyTypeString, ro, false, true),
		allowed,
	)
}

func relationshipProps() []*PropertyDefinition {
	return append(commonProps(),
		systemProp(cmis.PropSourceID, cmis.PropertyTypeID, cmis.UpdatabilityOnCreate, true, false),
		systemProp(cmis.PropTargetID, cmis.PropertyTypeID, cmis.UpdatabilityOnCreate, true, false),
	)
}

func policyProps() []*PropertyDefinition {
	return append(commonProps(),
		systemProp(cmis.PropPolicyText, cmis.PropertyTypeString, cmis.UpdatabilityReadWrite, false, false),
	)
}

func baseType(id cmis.BaseTypeID, displayName string, props []*PropertyDefinition) *TypeDefinition {
	t := &TypeDefinition{
		ID:                       string(id),
		DisplayName:              displayName,
		BaseTypeID:               id,
		Creatable:                true,
		Fileable:                 id == cmis.BaseTypeDocument || id == cmis.BaseTypeFolder,
		Queryable:                true,
		FulltextIndexed:          id == cmis.BaseTypeDocument,
		IncludedInSupertypeQuery: true,
		ControllableACL:          true,
		ControllablePolicy:       id != cmis.BaseTypePolicy,
	}
	t.applyDefaults()
	for _, p := range props {
		t.PropertyDefinitions[p.ID] = p
	}
	if id == cmis.BaseTypeDocument {
		t.Versionable = true
		t.ContentStreamAllowed = cmis.ContentStreamAllowedOpt
	}
	return t
}

func baseTypes() []*TypeDefinition {
	return []*TypeDefinition{
		baseType(cmis.BaseTypeDocument, "Document", documentProps()),
		baseType(cmis.BaseTypeFolder, "Folder", folderProps()),
		baseType(cmis.BaseTypeRelationship, "Relationship", relationshipProps()),
		baseType(cmis.BaseTypePolicy, "Policy", policyProps()),
	}
}
