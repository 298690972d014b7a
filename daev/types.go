package daev

// These mirror the JSON:API documents DAEV accepts for a new submission
// package.

type submissionDocument struct {
	Data submissionPackage `json:"data"`
}

type submissionPackage struct {
	Type          string                  `json:"type"`
	Attributes    submissionAttributes    `json:"attributes"`
	Relationships submissionRelationships `json:"relationships"`
}

type submissionAttributes struct {
	ServiceCode        string `json:"service_code"`
	SubmissionDatetime string `json:"submission_datetime"`
}

type submissionRelationships struct {
	Assets assetList `json:"assets"`
}

type assetList struct {
	Data []assetResource `json:"data"`
}

type assetResource struct {
	Attributes    assetAttributes    `json:"attributes"`
	Relationships assetRelationships `json:"relationships"`
}

type assetAttributes struct {
	Filename             string `json:"filename"`
	Size                 int64  `json:"size"`
	Location             string `json:"location"`
	FileCreationDatetime string `json:"file_creation_datetime"`
}

type assetRelationships struct {
	Checksums checksumList `json:"checksums"`
}

type checksumList struct {
	Data checksum `json:"data"`
}

type checksum struct {
	ChecksumType string `json:"checksum_type"`
	Value        string `json:"value"`
}

const (
	packageType = "submission_packages"
	md5Type     = "md5"

	// timestamps are sent as UTC without a zone suffix
	assetTimeFormat = "2006-01-02T15:04:05"
)

func newSubmissionDocument(serviceCode, submitted string, assets []Asset) submissionDocument {
	doc := submissionDocument{
		Data: submissionPackage{
			Type: packageType,
			Attributes: submissionAttributes{
				ServiceCode:        serviceCode,
				SubmissionDatetime: submitted,
			},
		},
	}
	// an empty list, not null, when there are no assets
	list := make([]assetResource, 0, len(assets))
	for _, a := range assets {
		list = append(list, assetResource{
			Attributes: assetAttributes{
				Filename:             a.Filename,
				Size:                 a.Size,
				Location:             a.Location,
				FileCreationDatetime: a.Created.UTC().Format(assetTimeFormat),
			},
			Relationships: assetRelationships{
				Checksums: checksumList{Data: checksum{ChecksumType: md5Type, Value: a.MD5}},
			},
		})
	}
	doc.Data.Relationships.Assets.Data = list
	return doc
}
