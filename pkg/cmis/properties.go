package cmis

// Standard property ids. Query names of the standard properties equal their ids.
const (
	PropName                      = "cmis:name"
	PropDescription               = "cmis:description"
	PropObjectID                  = "cmis:objectId"
	PropObjectTypeID              = "cmis:objectTypeId"
	PropBaseTypeID                = "cmis:baseTypeId"
	PropCreatedBy                 = "cmis:createdBy"
	PropCreationDate              = "cmis:creationDate"
	PropLastModifiedBy            = "cmis:lastModifiedBy"
	PropLastModificationDate      = "cmis:lastModificationDate"
	PropChangeToken               = "cmis:changeToken"
	PropParentID                  = "cmis:parentId"
	PropPath                      = "cmis:path"
	PropAllowedChildObjectTypes   = "cmis:allowedChildObjectTypeIds"
	PropIsImmutable               = "cmis:isImmutable"
	PropIsLatestVersion           = "cmis:isLatestVersion"
	PropIsMajorVersion            = "cmis:isMajorVersion"
	PropIsLatestMajorVersion      = "cmis:isLatestMajorVersion"
	PropIsPrivateWorkingCopy      = "cmis:isPrivateWorkingCopy"
	PropVersionLabel              = "cmis:versionLabel"
	PropVersionSeriesID           = "cmis:versionSeriesId"
	PropIsVersionSeriesCheckedOut = "cmis:isVersionSeriesCheckedOut"
	PropVersionSeriesCheckedOutBy = "cmis:versionSeriesCheckedOutBy"
	PropVersionSeriesCheckedOutID = "cmis:versionSeriesCheckedOutId"
	PropCheckinComment            = "cmis:checkinComment"
	PropContentStreamLength       = "cmis:contentStreamLength"
	PropContentStreamMimeType     = "cmis:contentStreamMimeType"
	PropContentStreamFileName     = "cmis:contentStreamFileName"
	PropContentStreamID           = "cmis:contentStreamId"
	PropSourceID                  = "cmis:sourceId"
	PropTargetID                  = "cmis:targetId"
	PropPolicyText                = "cmis:policyText"
)
