package badger

// Repositories bundles every BadgerDB repository over one backend.
type Repositories struct {
	Backend *Backend
	Chunks  *ChunkRepository
	Vectors *VectorRepository
	Cache   *CacheRepository
	Jobs    *JobRepository
	Status  *StatusRepository
}

// OpenRepositories builds every repository over backend. dimension is passed
// to NewVectorRepository.
func OpenRepositories(backend *Backend, dimension int) (*Repositories, error) {
	chunks, err := NewChunkRepository(backend)
	if err != nil {
		return nil, err
	}
	vectors, err := NewVectorRepository(backend, dimension)
	if err != nil {
		chunks.Close()
		return nil, err
	}
	return &Repositories{
		Backend: backend,
		Chunks:  chunks,
		Vectors: vectors,
		Cache:   NewCacheRepository(backend),
		Jobs:    NewJobRepository(backend),
		Status:  NewStatusRepository(backend),
	}, nil
}

// Close releases the chunk sequence and closes the backend.
func (r *Repositories) Close() error {
	seqErr := r.Chunks.Close()
	if err := r.Backend.Close(); err != nil {
		return err
	}
	return seqErr
}

// NewMemoryRepositories creates in-memory repositories for testing.
// Caller must Close the result when done.
func NewMemoryRepositories() (*Repositories, error) {
	backend, err := NewMemoryBackend()
	if err != nil {
		return nil, err
	}
	repos, err := OpenRepositories(backend, 0)
	if err != nil {
		backend.Close()
		return nil, err
	}
	return repos, nil
}
