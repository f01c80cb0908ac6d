package tags

// Output key orders. Keys not listed follow in insertion order.
var (
	// MP4Metadata orders file-level MP4 tags.
	MP4Metadata = []string{
		"title", "artist", "album", "album_artist",
		"track_number", "track_total", "disc_number", "disc_total",
		"genre", "duration_seconds", "bitrate", "release_date",
		"publisher", "isrc", "barcode", "upc", "media_type",
		"hd_video", "hd_video_definition", "hd_video_definition_level",
		"itunesadvisory",
		"rating_age_classification", "rating_label", "rating_system", "rating_unit",
		"replaygain_track_gain", "replaygain_album_gain",
		"lyrics", "composer", "copyright",
		"has_cover_art", "cover_art_mime", "cover_art_dimensions",
		"comment", "encoder", "performer", "language", "record_company",
		"description", "long_description",
		"sort_name", "sort_artist", "sort_album",
		"compilation", "gapless_playback",
		"content_id", "owner", "purchase_date", "itunes_account", "itunes_country",
		"artist_id", "playlist_id", "geID", "composer_id", "external_id",
		"itun_compilation",
	}

	// FLACMetadata orders FLAC Vorbis comment tags.
	FLACMetadata = []string{
		"title", "artist", "album", "album_artist",
		"track_number", "track_total", "disc_number", "disc_total",
		"genre", "duration_seconds", "bitrate", "tempo", "release_date",
		"publisher", "isrc", "barcode", "upc", "media_type",
		"replaygain_track_gain", "replaygain_track_peak",
		"replaygain_album_gain", "replaygain_album_peak",
		"lyrics", "composer", "copyright",
		"has_cover_art", "cover_art_mime", "cover_art_dimensions",
		"comment", "encoder",
	}

	// MP3Metadata orders ID3v2 tags.
	MP3Metadata = []string{
		"title", "artist", "album", "album_artist",
		"track_number", "track_total", "disc_number", "disc_total",
		"genre", "release_date", "publisher", "isrc", "barcode", "upc", "media_type",
		"replaygain_track_gain", "replaygain_album_gain",
		"lyrics", "composer", "copyright",
		"has_cover_art", "cover_art_mime", "cover_art_dimensions",
		"comment", "encoder", "performer", "language", "record_company",
		"description", "tempo", "length", "itunesadvisory",
	}

	// AudioTrack orders single-stream audio tracks (FLAC, MP3).
	AudioTrack = []string{
		"index", "handler_name", "language",
		"codec", "codec_tag_string", "channels", "channel_layout",
		"sample_rate", "bits_per_sample", "bitrate", "duration_seconds", "total_samples",
	}

	// MP4Audio orders MP4 audio tracks.
	MP4Audio = []string{
		"index", "handler_name", "language",
		"internationalized_language", "internationalized_language_long",
		"codec", "codec_tag_string", "channels", "channel_layout",
		"sample_rate", "bits_per_sample", "bitrate", "duration_seconds", "total_samples",
		"dolby_atmos",
		"main_program_content", "original_content",
		"dubbed_translation", "voice_over_translation", "language_translation",
		"describes_video_for_accessibility", "enhances_speech_intelligibility",
		"auxiliary_content",
	}

	// MP4Video orders MP4 video tracks.
	MP4Video = []string{
		"index", "handler_name", "language",
		"internationalized_language", "internationalized_language_long",
		"codec", "codec_tag_string", "profile", "profile_level",
		"width", "height", "frame_rate", "bitrate", "duration_seconds", "total_samples",
		"hdr_format", "pixel_format", "chroma_location",
		"color_space", "color_transfer", "color_primaries",
		"transfer_characteristics", "matrix_coefficients", "color_range",
		"max_content_light_level", "max_frame_average_light_level",
		"dolby_vision", "dolby_vision_profile", "dolby_vision_level", "dolby_vision_sdr_compatible",
		"main_program_content", "original_content", "auxiliary_content",
	}

	// MP4Subtitle orders MP4 subtitle tracks.
	MP4Subtitle = []string{
		"index", "handler_name", "language",
		"internationalized_language", "internationalized_language_long",
		"codec", "codec_tag_string", "duration_seconds",
		"main_program_content", "original_content", "auxiliary_content",
		"forced_only", "language_translation", "easy_to_read",
		"describes_music_and_sound", "transcribes_spoken_dialog",
	}
)
