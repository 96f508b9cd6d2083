package messaging

// Topic is a JetStream subject carrying one kind of pipeline message
type Topic string

const (
	TopicImageValidation Topic = "covers.image-validation"
	TopicCoverPublish    Topic = "covers.cover-publish"
	TopicMetadataEnrich  Topic = "covers.metadata-enrich"
	TopicDeletion        Topic = "covers.deletion"
	TopicNoHit           Topic = "covers.no-hit"
	TopicSearchMiss      Topic = "covers.search-miss"
	TopicIndexReady      Topic = "covers.index-ready"
)

// AllTopics lists every subject the stream must capture
func AllTopics() []Topic {
	return []Topic{
		TopicImageValidation,
		TopicCoverPublish,
		TopicMetadataEnrich,
		TopicDeletion,
		TopicNoHit,
		TopicSearchMiss,
		TopicIndexReady,
	}
}

func (t Topic) String() string {
	return string(t)
}
